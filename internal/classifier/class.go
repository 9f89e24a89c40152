package classifier

import "fmt"

// StressClass is the model output class. The numeric value is the index in
// the model's output vector.
type StressClass int

const (
	NotStressed StressClass = iota
	Stressed
)

// NumClasses is the length of the model's output vector.
const NumClasses = 2

// Classes lists every class in output index order.
var Classes = [NumClasses]StressClass{NotStressed, Stressed}

// ClassFromIndex maps an output index to its class.
func ClassFromIndex(i int) (StressClass, error) {
	if i < 0 || i >= NumClasses {
		return 0, fmt.Errorf("class index %d out of range [0, %d)", i, NumClasses)
	}
	return StressClass(i), nil
}

// Index returns the position of the class in the model output.
func (c StressClass) Index() int {
	return int(c)
}

// Label returns the display label.
func (c StressClass) Label() string {
	switch c {
	case NotStressed:
		return "Not Stressed"
	case Stressed:
		return "Stressed"
	}
	return ""
}

// Slug returns a stable machine-readable identifier used in JSON and metrics.
func (c StressClass) Slug() string {
	switch c {
	case NotStressed:
		return "not_stressed"
	case Stressed:
		return "stressed"
	}
	return ""
}

// ImageURL returns the externally hosted illustration for the class.
func (c StressClass) ImageURL() string {
	switch c {
	case NotStressed:
		return "https://th.bing.com/th/id/R.82b8c37a69d495e01b80c356c93e3bc0?rik=XbKjbAvPlYlp8Q&riu=http%3a%2f%2fwww.engineeringwellness.com%2fwp-content%2fuploads%2f2013%2f09%2fbigstock-No-more-Stress-get-some-relax-21897431.jpg&ehk=yy2KRUZWJXgGrUobmDrbMMpzZAk0CV1nLipSceiUjqM%3d&risl=&pid=ImgRaw&r=0"
	case Stressed:
		return "https://c0.wallpaperflare.com/preview/489/977/224/stress-burnout-man-person.jpg"
	}
	return ""
}

// Description returns the one-sentence interpretation shown under the label.
func (c StressClass) Description() string {
	switch c {
	case NotStressed:
		return "The audio suggests the speaker is in a calm state."
	case Stressed:
		return "The audio suggests the speaker is experiencing stress."
	}
	return ""
}

// Suggestion returns the advice text for the class.
func (c StressClass) Suggestion() string {
	switch c {
	case NotStressed:
		return "Keep up the good work! Regular relaxation and mindfulness can help maintain this state."
	case Stressed:
		return "Consider practicing stress-relief techniques such as deep breathing exercises, meditation, or talking to a counselor."
	}
	return ""
}

// String implements fmt.Stringer.
func (c StressClass) String() string {
	if l := c.Label(); l != "" {
		return l
	}
	return fmt.Sprintf("StressClass(%d)", int(c))
}
