// Package observe provides workflow observers that log, trace and measure
// runs. Each observer implements workflow.Observer and can be attached with
// workflow.Options.Observers or Workflow.Observe.
package observe
