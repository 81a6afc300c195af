package layout

// Solve runs the four-pass constraint solver of §4.6 over the tree rooted
// at t.Root(), writing each box's absolute Rect.
func Solve(t *Tree) {
	if t.root == noIndex {
		return
	}
	resolveIndependentSizes(t, t.root)
	resolveFitSizes(t, t.root)
	resolveDependentSizes(t, t.root)
	position(t, t.root, 0, 0)
}

// resolveIndependentSizes walks top-down setting Fixed sizes and
// leaving Grow/Percent/Fit at zero for later passes (§4.6 pass 1).
func resolveIndependentSizes(t *Tree, idx int) {
	box := t.Box(idx)
	for axis := 0; axis < 2; axis++ {
		if box.Decl.Size[axis].Kind == SizeFixed {
			box.computed[axis] = box.Decl.Size[axis].Value
		}
	}
	for c := box.FirstChild; c != noIndex; c = t.Box(c).NextSibling {
		resolveIndependentSizes(t, c)
	}
}

// resolveFitSizes is a postorder pass: a Fit-sized box's content size is the
// sum of children along the main axis (plus gaps/padding) and the max of
// children along the cross axis (plus padding) — §4.6 pass 2.
func resolveFitSizes(t *Tree, idx int) {
	box := t.Box(idx)
	for c := box.FirstChild; c != noIndex; c = t.Box(c).NextSibling {
		resolveFitSizes(t, c)
	}
	mainAxis, crossAxis := axesFor(box.Decl.Direction)

	needFit := box.Decl.Size[mainAxis].Kind == SizeFit || box.Decl.Size[crossAxis].Kind == SizeFit
	if !needFit || box.IsTextLeaf {
		return
	}

	var mainSum, crossMax float32
	n := 0
	for c := box.FirstChild; c != noIndex; c = t.Box(c).NextSibling {
		child := t.Box(c)
		if child.Decl.Floating {
			continue
		}
		mainSum += child.computed[mainAxis]
		if child.computed[crossAxis] > crossMax {
			crossMax = child.computed[crossAxis]
		}
		n++
	}
	if n > 1 {
		mainSum += box.Decl.ChildGap * float32(n-1)
	}
	if box.Decl.Size[mainAxis].Kind == SizeFit {
		box.computed[mainAxis] = mainSum + box.Decl.PaddingStart[mainAxis] + box.Decl.PaddingEnd[mainAxis]
	}
	if box.Decl.Size[crossAxis].Kind == SizeFit {
		box.computed[crossAxis] = crossMax + box.Decl.PaddingStart[crossAxis] + box.Decl.PaddingEnd[crossAxis]
	}
}

func axesFor(d Direction) (mainAxis, crossAxis int) {
	if d == LeftToRight {
		return int(AxisX), int(AxisY)
	}
	return int(AxisY), int(AxisX)
}

// resolveDependentSizes is the combined top-down pass for percent-of-parent
// sizing, grow distribution, and overflow violation resolution (§4.6
// passes 3-4).
func resolveDependentSizes(t *Tree, idx int) {
	box := t.Box(idx)
	mainAxis, crossAxis := axesFor(box.Decl.Direction)

	children := t.Children(idx)
	var flowChildren []int
	for _, c := range children {
		if !t.Box(c).Decl.Floating {
			flowChildren = append(flowChildren, c)
		}
	}

	contentMain := box.computed[mainAxis] - box.Decl.PaddingStart[mainAxis] - box.Decl.PaddingEnd[mainAxis]
	contentCross := box.computed[crossAxis] - box.Decl.PaddingStart[crossAxis] - box.Decl.PaddingEnd[crossAxis]

	// Cross axis: Percent and Grow both resolve against the parent's content
	// cross size; Fixed/Fit already resolved.
	for _, c := range children {
		child := t.Box(c)
		switch child.Decl.Size[crossAxis].Kind {
		case SizePercent:
			child.computed[crossAxis] = contentCross * child.Decl.Size[crossAxis].Value
		case SizeGrow:
			child.computed[crossAxis] = contentCross
		}
	}

	// Main axis: resolve Percent first, then distribute remaining space
	// across Grow children, then shrink everything proportionally if the
	// fixed+percent+fit total alone already overflows (§4.6 pass 4).
	var fixedSum float32
	var growCount int
	for _, c := range flowChildren {
		child := t.Box(c)
		switch child.Decl.Size[mainAxis].Kind {
		case SizePercent:
			child.computed[mainAxis] = contentMain * child.Decl.Size[mainAxis].Value
			fixedSum += child.computed[mainAxis]
		case SizeGrow:
			growCount++
		default:
			fixedSum += child.computed[mainAxis]
		}
	}
	if n := len(flowChildren); n > 1 {
		fixedSum += box.Decl.ChildGap * float32(n-1)
	}

	remaining := contentMain - fixedSum
	if growCount > 0 {
		share := remaining / float32(growCount)
		if share < 0 {
			share = 0
		}
		for _, c := range flowChildren {
			child := t.Box(c)
			if child.Decl.Size[mainAxis].Kind == SizeGrow {
				child.computed[mainAxis] = share
			}
		}
	}

	if !box.Decl.AllowOverflow {
		var total float32
		for _, c := range flowChildren {
			total += t.Box(c).computed[mainAxis]
		}
		if n := len(flowChildren); n > 1 {
			total += box.Decl.ChildGap * float32(n-1)
		}
		if total > contentMain && total > 0 {
			scale := contentMain / total
			if scale < 0 {
				scale = 0
			}
			for _, c := range flowChildren {
				child := t.Box(c)
				child.computed[mainAxis] *= scale
			}
		}
	}

	for _, c := range children {
		resolveDependentSizes(t, c)
	}
}

// position is the top-down pass-5 walk: places children per Direction and
// AlignChildren, excluding floating children from sibling flow accounting
// (§4.6 pass 5).
func position(t *Tree, idx int, x, y float32) {
	box := t.Box(idx)
	box.Rect = Rect{X: x, Y: y, W: box.computed[AxisX], H: box.computed[AxisY]}

	mainAxis, crossAxis := axesFor(box.Decl.Direction)
	contentOrigin := [2]float32{x + box.Decl.PaddingStart[AxisX], y + box.Decl.PaddingStart[AxisY]}
	contentSize := [2]float32{
		box.computed[AxisX] - box.Decl.PaddingStart[AxisX] - box.Decl.PaddingEnd[AxisX],
		box.computed[AxisY] - box.Decl.PaddingStart[AxisY] - box.Decl.PaddingEnd[AxisY],
	}

	var flow []int
	var flowTotal float32
	for c := box.FirstChild; c != noIndex; c = t.Box(c).NextSibling {
		child := t.Box(c)
		if child.Decl.Floating {
			continue
		}
		flow = append(flow, c)
		flowTotal += child.computed[mainAxis]
	}
	if n := len(flow); n > 1 {
		flowTotal += box.Decl.ChildGap * float32(n-1)
	}

	mainCursor := contentOrigin[mainAxis]
	switch box.Decl.AlignChildren[mainAxis] {
	case AlignCenter:
		mainCursor += (contentSize[mainAxis] - flowTotal) / 2
	case AlignEnd:
		mainCursor += contentSize[mainAxis] - flowTotal
	}

	for _, c := range flow {
		child := t.Box(c)
		crossCursor := contentOrigin[crossAxis]
		switch box.Decl.AlignChildren[crossAxis] {
		case AlignCenter:
			crossCursor += (contentSize[crossAxis] - child.computed[crossAxis]) / 2
		case AlignEnd:
			crossCursor += contentSize[crossAxis] - child.computed[crossAxis]
		}

		var childX, childY float32
		if mainAxis == int(AxisX) {
			childX, childY = mainCursor, crossCursor
		} else {
			childX, childY = crossCursor, mainCursor
		}
		position(t, c, childX, childY)
		mainCursor += child.computed[mainAxis] + box.Decl.ChildGap
	}

	for c := box.FirstChild; c != noIndex; c = t.Box(c).NextSibling {
		child := t.Box(c)
		if child.Decl.Floating {
			position(t, c, contentOrigin[0], contentOrigin[1])
		}
	}
}
