package ml

// meanSquaredError is the mean of squared prediction errors.
func meanSquaredError(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		d := y[i] - pred[i]
		sum += d * d
	}
	return sum / float64(len(y))
}

// r2Score is the coefficient of determination, 1 - SSres/SStot. A
// constant target has no variance to explain and scores 0.
func r2Score(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := meanAll(y)
	ssRes, ssTot := 0.0, 0.0
	for i := range y {
		d := y[i] - pred[i]
		ssRes += d * d
		t := y[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
