package sync

// Winner names the side a conflict resolves to.
type Winner int

const (
	WinnerLocal Winner = iota
	WinnerRemote
	Unresolvable
)

func (w Winner) String() string {
	switch w {
	case WinnerLocal:
		return "local"
	case WinnerRemote:
		return "remote"
	case Unresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// Resolve picks a conflict winner by timestamp. The most recent
// timestamp on each side is compared; strictly greater wins. Equal
// timestamps resolve to Local: the device's own pending edit takes
// precedence over a coincidentally equal remote write, a deliberate
// tie-break. A side without any parseable timestamp loses to one that
// has one; when neither side has one the conflict is Unresolvable and
// must be surfaced rather than guessed.
func Resolve(c Conflict) Winner {
	lts, rts := c.Local.Newest(), c.Remote.Newest()
	switch {
	case !lts.Valid() && !rts.Valid():
		return Unresolvable
	case !rts.Valid():
		return WinnerLocal
	case !lts.Valid():
		return WinnerRemote
	case rts.After(lts):
		return WinnerRemote
	default:
		return WinnerLocal
	}
}
