/*
Package linviz lays out and renders the history of a concurrent execution
together with the partial linearizations a linearizability checker found for
it.

The pipeline is:

	Decode     -> Dataset     typed input, validated at the boundary
	Normalize  -> Model       global ids, client rows, tie-broken timestamps
	Solve      -> Layout      x coordinate of every timestamp, one greedy pass
	Project    -> Projection  linearization points, segments, illegal next steps
	Emit       -> Scene       renderer-agnostic boxes, labels and layers

A Controller drives hover and selection over the result without any rendering
surface, and WriteSVG renders a Scene as a static SVG document.
*/
package linviz
