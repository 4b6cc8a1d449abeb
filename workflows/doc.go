// Package workflows holds the ready-made workflows shipped with beeflow. Each
// lives in its own sub package and is built from a model.Model plus options.
package workflows
