/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package engine

// Transform is a 6-component affine matrix [a b c d e f] mapping scene
// coordinates to screen coordinates: a/d are the scale factors and e/f the
// translation (no skew in practice). It is excluded from scene snapshots.
type Transform [6]float64

// Identity returns the identity transform.
func Identity() Transform { return Transform{1, 0, 0, 1, 0, 0} }

// ScaleX returns the horizontal scale factor.
func (t Transform) ScaleX() float64 { return t[0] }

// ScaleY returns the vertical scale factor.
func (t Transform) ScaleY() float64 { return t[3] }

// TranslateX returns the horizontal translation.
func (t Transform) TranslateX() float64 { return t[4] }

// TranslateY returns the vertical translation.
func (t Transform) TranslateY() float64 { return t[5] }

// Translated returns a copy shifted by (dx, dy) in screen space.
func (t Transform) Translated(dx, dy float64) Transform {
	t[4] += dx
	t[5] += dy
	return t
}

// Scaled returns a copy with both scale factors set to s, keeping the
// translation.
func (t Transform) Scaled(s float64) Transform {
	t[0], t[3] = s, s
	return t
}
