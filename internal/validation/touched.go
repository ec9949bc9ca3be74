package validation

// Touched records the fields a user has interacted with. Errors are shown for
// touched fields only, or for every field once a submit was attempted.
type Touched map[string]struct{}

func (t Touched) Touch(id string) {
	t[id] = struct{}{}
}

func (t Touched) Has(id string) bool {
	_, ok := t[id]
	return ok
}

// Visible filters errs down to what the user should currently see.
func Visible(errs map[string]string, touched Touched, submitAttempted bool) map[string]string {
	out := make(map[string]string, len(errs))
	for id, msg := range errs {
		if submitAttempted || touched.Has(id) {
			out[id] = msg
		}
	}
	return out
}
