package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	out, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, 3, 2026, 7)
	require.NoError(t, err)
	assert.Equal(t, "HD-202603-0007", out)

	out, err = FormatInvoiceNumber("{YY}{MM}-{SEQ}", 12, 2026, 42)
	require.NoError(t, err)
	assert.Equal(t, "2612-42", out)
}

func TestFormatInvoiceNumber_Invalid(t *testing.T) {
	_, err := FormatInvoiceNumber("", 1, 2026, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, 13, 2026, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, 1, 2026, 0)
	assert.Error(t, err)
}
