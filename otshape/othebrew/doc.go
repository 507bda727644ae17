/*
Package othebrew provides the Hebrew script shaping engine for package otshape.

It contributes Hebrew-specific normalization composition and mark-reordering
logic through otshape's shaper hook interfaces.
*/
package othebrew
