package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "1/2/2024", FormatDate(d, "en-US", nil))
	assert.Equal(t, "1/2/2024", FormatDate(d, "", nil))
	assert.Equal(t, "02/01/2024", FormatDate(d, "en-GB", nil))
	assert.Equal(t, "2.1.2024", FormatDate(d, "de-DE", nil))
	assert.Equal(t, "2024/1/2", FormatDate(d, "ja", nil))

	assert.Equal(t, "Jan 2, 2024", FormatDate(d, "en-US", &DateOptions{Style: DateMedium}))
	assert.Equal(t, "January 2, 2024", FormatDate(d, "en-US", &DateOptions{Style: DateLong}))
	assert.Equal(t, "2. Januar 2024", FormatDate(d, "de", &DateOptions{Style: DateLong}))
	assert.Equal(t, "2 janvier 2024", FormatDate(d, "fr", &DateOptions{Style: DateLong}))

	assert.Equal(t, "1/2/2024, 3:04:05 PM", FormatDate(d, "en-US", &DateOptions{WithTime: true}))
	assert.Equal(t, "2.1.2024, 15:04:05", FormatDate(d, "de", &DateOptions{WithTime: true}))
}

func TestFormatDate_Location(t *testing.T) {
	d := time.Date(2024, time.January, 2, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	assert.Equal(t, "1/3/2024", FormatDate(d, "en-US", &DateOptions{Location: tokyo}))
}

func TestFormatDate_UnknownLocaleFallsBack(t *testing.T) {
	d := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "3/4/2024", FormatDate(d, "zz", nil))
}
