package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldRules(t *testing.T) {
	rules, err := ParseFieldRules("email=lower, officeLocation=Title,,tenderNumber=upper")
	require.NoError(t, err)

	assert.Equal(t, FieldRules{
		FieldEmail:          OpLower,
		FieldOfficeLocation: OpTitle,
		FieldTenderNumber:   OpUpper,
	}, rules)
	assert.Equal(t, "email=lower,officeLocation=title,tenderNumber=upper", rules.String())
}

func TestParseFieldRules_Empty(t *testing.T) {
	rules, err := ParseFieldRules("")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestParseFieldRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing op", "email", ErrMalformedRule},
		{"unknown field", "tags=lower", ErrUnknownField},
		{"unknown op", "email=reverse", ErrUnknownFieldOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFieldRules(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFieldRules_Apply(t *testing.T) {
	rules := FieldRules{
		FieldOfficeLocation: OpTitle,
		FieldEmail:          OpLower,
		FieldTenderNumber:   OpUpper,
		FieldDescription:    OpText,
		FieldProvince:       OpNone,
	}

	assert.Equal(t, "Megawatt Park", rules.apply(FieldOfficeLocation, " megawatt\npark "))
	assert.Equal(t, "tenders@eskom.co.za", rules.apply(FieldEmail, "Tenders@Eskom.CO.ZA"))
	assert.Equal(t, "ESK-12", rules.apply(FieldTenderNumber, "esk-12"))
	assert.Equal(t, "Supply of cables Phase one", rules.apply(FieldDescription, "<p>Supply of <b>cables</b></p><p>Phase one</p>"))
	assert.Equal(t, "gauteng", rules.apply(FieldProvince, " gauteng\r\n"))
	assert.Equal(t, "Untouched CASE", rules.apply(FieldTitle, "Untouched CASE"))
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"Upgrade\n Substation ": "Upgrade Substation",
		"a\r\nb":                "a b",
		"a\rb":                  "a b",
		"a \n\n b":              "a b",
		"\n\tleading":           "leading",
		"no breaks":             "no breaks",
		"":                      "",
	}

	for in, want := range tests {
		assert.Equal(t, want, cleanText(in), "%q", in)
	}
}
