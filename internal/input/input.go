// Package input turns pointer and touch gestures into letter moves.
//
// Both gesture families end in the same Move{From, To}: a letter index and a
// gap position (gap k sits before letter k, gap n after the last letter).
// Reduce is pure; front-ends keep the returned State and apply any Move.
package input

// Kind names a gesture event.
type Kind int

const (
	DragStart Kind = iota
	DragDrop
	DragEnd
	TouchStart
	TouchMove
	TouchEnd
	TouchCancel
)

func (k Kind) String() string {
	switch k {
	case DragStart:
		return "dragStart"
	case DragDrop:
		return "dragDrop"
	case DragEnd:
		return "dragEnd"
	case TouchStart:
		return "touchStart"
	case TouchMove:
		return "touchMove"
	case TouchEnd:
		return "touchEnd"
	case TouchCancel:
		return "touchCancel"
	}
	return "unknown"
}

// NoGap marks a pointer that is not over any gap.
const NoGap = -1

// Event is one gesture step. Index is the letter for DragStart/TouchStart;
// Gap is the gap under the pointer for DragDrop/TouchMove/TouchEnd.
type Event struct {
	Kind  Kind
	Index int
	Gap   int
}

func StartDrag(index int) Event  { return Event{Kind: DragStart, Index: index, Gap: NoGap} }
func Drop(gap int) Event         { return Event{Kind: DragDrop, Gap: gap} }
func EndDrag() Event             { return Event{Kind: DragEnd, Gap: NoGap} }
func StartTouch(index int) Event { return Event{Kind: TouchStart, Index: index, Gap: NoGap} }
func MoveTouch(gap int) Event    { return Event{Kind: TouchMove, Gap: gap} }
func EndTouch(gap int) Event     { return Event{Kind: TouchEnd, Gap: gap} }
func CancelTouch() Event         { return Event{Kind: TouchCancel, Gap: NoGap} }

// State is the gesture in progress. The zero value is idle.
type State struct {
	Active bool
	From   int // letter being dragged
	Hover  int // gap highlighted under the finger, NoGap if none
}

// Move is a completed gesture.
type Move struct {
	From int
	To   int
}

// Reduce applies ev to st. It returns the next state and, when the gesture
// completed over a gap, the move to perform.
func Reduce(st State, ev Event) (State, *Move) {
	idle := State{Hover: NoGap}
	switch ev.Kind {
	case DragStart, TouchStart:
		return State{Active: true, From: ev.Index, Hover: NoGap}, nil
	case TouchMove:
		if !st.Active {
			return st, nil
		}
		st.Hover = ev.Gap
		return st, nil
	case DragDrop, TouchEnd:
		if !st.Active || ev.Gap == NoGap {
			return idle, nil
		}
		return idle, &Move{From: st.From, To: ev.Gap}
	case DragEnd, TouchCancel:
		return idle, nil
	}
	return st, nil
}
