package tomltypes

import "time"

type Duration struct{ time.Duration }

func (s *Duration) UnmarshalText(text []byte) error {
	var err error
	s.Duration, err = time.ParseDuration(string(text))
	return err
}

func (s *Duration) Value() *time.Duration {
	if s == nil {
		return nil
	}
	return &s.Duration
}

// Seconds returns the duration as a whole second count, which is how
// the runner-manager process expects time values in its bootstrap file.
func (s *Duration) Seconds() *int {
	if s == nil {
		return nil
	}
	seconds := int(s.Duration / time.Second)
	return &seconds
}
