package mask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/mask"
)

type lease struct {
	ID            string `json:"id"`
	ReceiptHandle string `json:"receipt_handle" mask:"true"`
}

type payload struct {
	Body        []byte            `json:"body"         mask:"TRUE"`
	Attempts    int               `json:"attempts"     mask:"true"`
	Ratio       float64           `json:"ratio"        mask:"true"`
	Urgent      bool              `json:"urgent"       mask:"true"`
	Tags        []string          `json:"tags"         mask:"true"`
	Headers     map[string]string `json:"headers"      mask:"true"`
	Note        *string           `json:"note"         mask:"true"`
	Lease       lease             `json:"lease"`
	Next        *lease            `json:"next"`
	Skipped     string            `json:"-"`
	YAMLNamed   string            `yaml:"yaml_named"`
	Plain       string
	unexported  string
	EmptyMasked string `json:"empty_masked" mask:"true"`
}

func TestStructToOrdMap(t *testing.T) {
	note := "secret"
	in := payload{
		Body:       []byte("hello world"),
		Attempts:   3,
		Ratio:      0.5,
		Urgent:     true,
		Tags:       []string{"a"},
		Headers:    map[string]string{"k": "v"},
		Note:       &note,
		Lease:      lease{ID: "m1", ReceiptHandle: "h1"},
		Skipped:    "nope",
		YAMLNamed:  "y",
		Plain:      "p",
		unexported: "u",
	}

	om := mask.StructToOrdMap(&in)
	require.NotNil(t, om)

	var keys []string
	got := map[string]any{}
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
		got[pair.Key] = pair.Value
	}

	assert.Equal(t, []string{
		"body", "attempts", "ratio", "urgent", "tags", "headers", "note",
		"lease.id", "lease.receipt_handle", "next", "yaml_named", "Plain", "empty_masked",
	}, keys)

	tests := map[string]any{
		"body":                 "***masked-11-bytes***",
		"attempts":             "***masked-int***",
		"ratio":                "***masked-float***",
		"urgent":               "***masked-bool***",
		"tags":                 "***masked-slice***",
		"headers":              "***masked-map***",
		"note":                 "***masked-string***",
		"lease.id":             "m1",
		"lease.receipt_handle": "***masked-string***",
		"yaml_named":           "y",
		"Plain":                "p",
		"empty_masked":         "",
	}
	for key, want := range tests {
		assert.Equal(t, want, got[key], key)
	}
	assert.Nil(t, got["next"])
}

func TestStructToOrdMap_NilAndNonStruct(t *testing.T) {
	assert.Nil(t, mask.StructToOrdMap(nil))

	om := mask.StructToOrdMap(42)
	v, ok := om.Get("")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	var p *lease
	om = mask.StructToOrdMap(p)
	v, ok = om.Get("")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestStructToOrdMap_NilMaskedCollections(t *testing.T) {
	om := mask.StructToOrdMap(payload{})

	body, _ := om.Get("body")
	tags, _ := om.Get("tags")
	headers, _ := om.Get("headers")
	note, _ := om.Get("note")

	assert.Nil(t, body)
	assert.Nil(t, tags)
	assert.Nil(t, headers)
	assert.Nil(t, note)
}
