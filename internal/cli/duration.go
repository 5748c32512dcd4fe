package cli

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/JonMunkholm/boardimport/internal/config"
)

// durationValue is a pflag.Value that parses like the environment does, so
// "--delay 100" and IMPORT_BATCH_DELAY=100 both mean 100ms.
type durationValue time.Duration

var _ pflag.Value = (*durationValue)(nil)

func newDurationValue(p *time.Duration) *durationValue {
	return (*durationValue)(p)
}

func (d *durationValue) Set(s string) error {
	v, err := config.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}

func (d *durationValue) String() string { return time.Duration(*d).String() }

func (d *durationValue) Type() string { return "duration" }
