package models

/*
Viewer is the per-browser state kept in the session cookie. Flash holds a
notification to show on the next page render.
*/
type Viewer struct {
	AccessGranted bool
	CurrentID     string
	CurrentKey    string
	Scale         float64
	Flash         string
	FlashIsError  bool
}
