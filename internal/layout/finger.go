package layout

// Finger identifies a finger, numbered left pinky (0) to right pinky (9).
// Thumbs (4, 5) never strike a character key.
type Finger int

// Named fingers.
const (
	LeftPinky   Finger = 0
	LeftRing    Finger = 1
	LeftMiddle  Finger = 2
	LeftIndex   Finger = 3
	LeftThumb   Finger = 4
	RightThumb  Finger = 5
	RightIndex  Finger = 6
	RightMiddle Finger = 7
	RightRing   Finger = 8
	RightPinky  Finger = 9
)

// Fingers is the number of finger ids.
const Fingers = 10

// FingerTable maps a column to the finger that strikes it. It is shared by
// every layout and spans the widest row.
var FingerTable = [...]Finger{
	LeftPinky, LeftRing, LeftMiddle, LeftIndex, LeftIndex,
	RightIndex, RightIndex, RightMiddle, RightRing,
	RightPinky, RightPinky, RightPinky, RightPinky, RightPinky,
}

func (f Finger) String() string {
	switch f {
	case LeftPinky:
		return "left pinky"
	case LeftRing:
		return "left ring"
	case LeftMiddle:
		return "left middle"
	case LeftIndex:
		return "left index"
	case LeftThumb:
		return "left thumb"
	case RightThumb:
		return "right thumb"
	case RightIndex:
		return "right index"
	case RightMiddle:
		return "right middle"
	case RightRing:
		return "right ring"
	case RightPinky:
		return "right pinky"
	default:
		return "unknown"
	}
}

// Hand is the hand that types a key.
type Hand string

const (
	Left  Hand = "L"
	Right Hand = "R"
)

// HandBoundary is the last column typed by the left hand.
const HandBoundary = 5

// HandOf returns the hand for a column.
func HandOf(column int) Hand {
	if column <= HandBoundary {
		return Left
	}
	return Right
}

// FingerOf returns the finger for a column.
func FingerOf(column int) (Finger, bool) {
	if column < 0 || column >= len(FingerTable) {
		return 0, false
	}
	return FingerTable[column], true
}
