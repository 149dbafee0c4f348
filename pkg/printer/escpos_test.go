package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStartsWithInit(t *testing.T) {
	doc := NewDocument(0)
	assert.Equal(t, 32, doc.Width())
	assert.Equal(t, []byte{ESC, '@'}, doc.Bytes())
}

func TestKeyValuePadsToWidth(t *testing.T) {
	doc := NewDocument(20)
	doc.Reset()
	raw := doc.KeyValue("Total:", "$10.00").Bytes()

	line := string(bytes.TrimPrefix(raw, []byte{ESC, '@'}))
	assert.Equal(t, "Total:        $10.00\n", line)
}

func TestItemLineTruncatesLongTitles(t *testing.T) {
	doc := NewDocument(24)
	raw := doc.ItemLine(2, "The Go Programming Language", "31.98").Bytes()

	line := strings.TrimSuffix(string(bytes.TrimPrefix(raw, []byte{ESC, '@'})), "\n")
	require.Len(t, []rune(line), 24)
	assert.True(t, strings.HasPrefix(line, "2x The Go Pro"))
	assert.Contains(t, line, "~")
	assert.True(t, strings.HasSuffix(line, "31.98"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Madol", Truncate("Madol", 5))
	assert.Equal(t, "Mad~", Truncate("Madol", 4))
	assert.Equal(t, "~", Truncate("Madol", 1))
	assert.Equal(t, "", Truncate("Madol", 0))
	assert.Equal(t, "ගම්~", Truncate("ගම්පෙරළිය", 4))
}

func TestNewPrinterFromConfig(t *testing.T) {
	p, err := NewPrinterFromConfig("none", "", "")
	require.NoError(t, err)
	assert.Equal(t, "none", p.Type())
	assert.NoError(t, p.Print([]byte("x")))

	_, err = NewPrinterFromConfig("usb", "", "")
	assert.Error(t, err)
	_, err = NewPrinterFromConfig("network", "", "")
	assert.Error(t, err)
	_, err = NewPrinterFromConfig("serial", "", "")
	assert.Error(t, err)

	p, err = NewPrinterFromConfig("network", "", "10.0.0.5:9100")
	require.NoError(t, err)
	assert.Equal(t, "network", p.Type())
}
