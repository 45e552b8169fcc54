// Package viz renders a running particle model in the terminal.
//
//   - [Canvas]: braille pixel canvas, coloured per variant
//   - [Theme]: panel colours and the variant palette
//   - [Live]: Bubble Tea program stepping the model once per frame
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reseed the model
//	+/-   - Speed up / slow down model time
//	T     - Cycle themes
//	Q     - Quit
package viz
