package drawing

import "image"

const UndoCapacity = 20

// UndoStack is a bounded ring of full raster snapshots. Pushing onto a full
// stack evicts the oldest snapshot.
type UndoStack struct {
	items [UndoCapacity]*image.RGBA
	head  int // index of the next push
	size  int
}

func (u *UndoStack) Push(img *image.RGBA) {
	u.items[u.head] = img
	u.head = (u.head + 1) % UndoCapacity
	if u.size < UndoCapacity {
		u.size++
	}
}

func (u *UndoStack) Pop() (*image.RGBA, bool) {
	if u.size == 0 {
		return nil, false
	}
	u.head = (u.head - 1 + UndoCapacity) % UndoCapacity
	img := u.items[u.head]
	u.items[u.head] = nil
	u.size--
	return img, true
}

func (u *UndoStack) Len() int {
	return u.size
}

func (u *UndoStack) Reset() {
	*u = UndoStack{}
}
