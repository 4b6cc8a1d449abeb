// Package agent contains the model-centric, tool-calling agent used by the
// beeflow programs.
//
// An Agent runs a reasoning loop for one user turn:
//
//  1. resolve the instruction (static text, template or provider)
//  2. load the session history and append the user prompt
//  3. call the model with the registered tools
//  4. execute requested tool calls sequentially, feeding each result (or
//     tool error) back as a tool message
//  5. repeat until the model answers with plain text or the iteration
//     limit is reached
//
// Only the user prompt and the final answer are written to the session
// memory; intermediate tool traffic stays local to the turn.
//
// Coordination of several agents (sequences, branches, loops) is expressed
// as a workflow.Workflow instead of composite agent types.
package agent
