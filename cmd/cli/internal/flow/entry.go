package flow

// Positions is the number of passcode digits.
const Positions = 6

// Entry models the six-box passcode input. Exactly one position accepts input
// at a time: the first empty box, or the last box once all are filled. Digits
// land only there; backspace either clears the active box (if it holds a
// digit) or clears the previous box and moves back.
type Entry struct {
	boxes [Positions]byte
}

// NewEntry returns an empty passcode entry.
func NewEntry() *Entry {
	return &Entry{}
}

// Active returns the index of the position currently accepting input.
func (e *Entry) Active() int {
	for i, b := range e.boxes {
		if b == 0 {
			return i
		}
	}
	return Positions - 1
}

// Enabled reports whether position i accepts input.
func (e *Entry) Enabled(i int) bool {
	return i == e.Active()
}

// PressDigit places a digit in the active position. It reports whether the
// press changed anything: non-digits are rejected, and so is typing into a
// position that already holds a digit (the full-entry case).
func (e *Entry) PressDigit(c byte) bool {
	if c < '0' || c > '9' {
		return false
	}
	i := e.Active()
	if e.boxes[i] != 0 {
		return false
	}
	e.boxes[i] = c
	return true
}

// PressBackspace deletes at the active position. A filled active box is
// cleared in place; an empty one past the first clears the previous box, and
// the active position follows.
func (e *Entry) PressBackspace() bool {
	i := e.Active()
	if e.boxes[i] != 0 {
		e.boxes[i] = 0
		return true
	}
	if i == 0 {
		return false
	}
	e.boxes[i-1] = 0
	return true
}

// Reset clears all positions.
func (e *Entry) Reset() {
	e.boxes = [Positions]byte{}
}

// Complete reports whether all six positions are filled.
func (e *Entry) Complete() bool {
	for _, b := range e.boxes {
		if b == 0 {
			return false
		}
	}
	return true
}

// Code returns the entered digits, shortest-prefix first. It is only the full
// passcode when Complete is true.
func (e *Entry) Code() string {
	out := make([]byte, 0, Positions)
	for _, b := range e.boxes {
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

// Digit returns the digit at position i, or 0 when empty.
func (e *Entry) Digit(i int) byte {
	return e.boxes[i]
}
