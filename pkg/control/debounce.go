package control

// State is the phase of the Debouncer.
type State int

const (
	Idle State = iota
	Debouncing
	Active
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Active:
		return "active"
	default:
		return "idle"
	}
}

// DefaultThreshold is how many repeated presses confirm a hold.
const DefaultThreshold = 4

// Event is a key going down or up.
type Event struct {
	Key     string
	Pressed bool
}

// Transition is what Feed observed. Start is set on the event that confirms a
// hold; End is set when a confirmed hold is released.
type Transition struct {
	Key   string
	Start bool
	End   bool
}

// Debouncer tracks one key at a time. A press enters Debouncing; each further
// press of the same key counts, and reaching Threshold makes the key Active.
// Releasing while Debouncing drops the key silently. While a key is Active,
// presses of other keys are ignored until it is released.
type Debouncer struct {
	Threshold int

	state State
	key   string
	count int
}

// NewDebouncer creates a Debouncer with DefaultThreshold.
func NewDebouncer() *Debouncer {
	return &Debouncer{Threshold: DefaultThreshold}
}

// State returns the current phase and key.
func (d *Debouncer) State() (State, string) {
	return d.state, d.key
}

// Feed advances the machine by one event.
func (d *Debouncer) Feed(ev Event) Transition {
	switch d.state {
	case Idle:
		if ev.Pressed {
			d.begin(ev.Key)
			return d.confirm()
		}
	case Debouncing:
		switch {
		case ev.Pressed && ev.Key == d.key:
			d.count++
			return d.confirm()
		case ev.Pressed:
			d.begin(ev.Key)
			return d.confirm()
		case ev.Key == d.key:
			d.reset()
		}
	case Active:
		if !ev.Pressed && ev.Key == d.key {
			key := d.key
			d.reset()
			return Transition{Key: key, End: true}
		}
	}
	return Transition{}
}

// Release forces a confirmed hold to end, e.g. when the source closes.
func (d *Debouncer) Release() Transition {
	if d.state == Active {
		key := d.key
		d.reset()
		return Transition{Key: key, End: true}
	}
	d.reset()
	return Transition{}
}

func (d *Debouncer) begin(key string) {
	d.state, d.key, d.count = Debouncing, key, 1
}

func (d *Debouncer) confirm() Transition {
	threshold := d.Threshold
	if threshold < 1 {
		threshold = 1
	}
	if d.count >= threshold {
		d.state = Active
		return Transition{Key: d.key, Start: true}
	}
	return Transition{}
}

func (d *Debouncer) reset() {
	d.state, d.key, d.count = Idle, "", 0
}
