package core

import "rxncore/pkg/domain"

// Pure precondition checks. Every check is total and side-effect free; the
// operation layer applies them in a fixed order so that index-range failures
// take precedence over ID-uniqueness failures, which take precedence over
// numeric-range failures.

func checkRect(op string, x, y, w, h float64, strictSize bool, args ...any) error {
	bad := x < 0 || y < 0
	if strictSize {
		bad = bad || w <= 0 || h <= 0
	} else {
		bad = bad || w < 0 || h < 0
	}
	if bad {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, x, y, w, h)...)
	}
	return nil
}

func checkCoordinate(op string, x, y float64, args ...any) error {
	if x < 0 || y < 0 {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, x, y)...)
	}
	return nil
}

func checkSize(op string, w, h float64, strict bool, args ...any) error {
	if strict && (w <= 0 || h <= 0) {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, w, h)...)
	}
	if !strict && (w < 0 || h < 0) {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, w, h)...)
	}
	return nil
}

func checkChannels(op string, r, g, b int, args ...any) error {
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return domain.NewError(domain.CodeValueOutOfRange, op, append(args, r, g, b)...)
		}
	}
	return nil
}

func checkAlpha(op string, a float64, args ...any) error {
	if a < 0 || a > 1 {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, a)...)
	}
	return nil
}

func checkPositive(op string, v float64, args ...any) error {
	if v <= 0 {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, v)...)
	}
	return nil
}

func checkNonNegative(op string, v float64, args ...any) error {
	if v < 0 {
		return domain.NewError(domain.CodeValueOutOfRange, op, append(args, v)...)
	}
	return nil
}

func checkStoich(op string, stoich float64, args ...any) error {
	if stoich <= 0 {
		return domain.NewError(domain.CodeBadStoichiometry, op, append(args, stoich)...)
	}
	return nil
}

func checkNodeIDFree(op string, n *Network, id string, args ...any) error {
	for _, node := range n.Nodes {
		if !node.IsAlias() && node.ID == id {
			return domain.NewError(domain.CodeIDRepeat, op, append(args, id)...)
		}
	}
	return nil
}

func checkReactionIDFree(op string, n *Network, id string, args ...any) error {
	for _, rea := range n.Reactions {
		if rea.ID == id {
			return domain.NewError(domain.CodeIDRepeat, op, append(args, id)...)
		}
	}
	return nil
}

func checkCompartmentIDFree(op string, n *Network, id string, args ...any) error {
	for _, comp := range n.Compartments {
		if comp.ID == id {
			return domain.NewError(domain.CodeIDRepeat, op, append(args, id)...)
		}
	}
	return nil
}
