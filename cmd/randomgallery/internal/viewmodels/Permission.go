package viewmodels

type Permission struct {
	BaseViewModel

	AccessCode   string
	RequiresCode bool
}
