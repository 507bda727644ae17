/*
Package otcore provides the baseline shaping engine for package otshape.

The core shaper implements neutral OpenType shaping behavior and is intended as
the fallback engine when no script-specific engine is a better match.
*/
package otcore
