package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTagNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input TagInput
		want  Tag
	}{
		{"bare string", TagName("x"), Tag{Name: "x"}},
		{"empty string", TagName(""), Tag{Name: ""}},
		{"object", TagObject(Tag{Name: "y"}), Tag{Name: "y"}},
		{"nameless object", TagObject(Tag{}), Tag{Name: "{}"}},
		{"integer", TagValue(5), Tag{Name: "5"}},
		{"bool", TagValue(true), Tag{Name: "true"}},
		{"string via TagValue", TagValue("z"), Tag{Name: "z"}},
		{"pointer to tag", TagValue(&Tag{Name: "p"}), Tag{Name: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.Normalize())
		})
	}
}

func TestTagInputFromJSON(t *testing.T) {
	var tags []TagInput
	require.NoError(t, json.Unmarshal([]byte(`["x", {"name": "y"}, 5, {"label": "z"}, {"name": 7}, null, [1, 2]]`), &tags))

	got := make([]Tag, len(tags))
	for i, tg := range tags {
		got[i] = tg.Normalize()
	}
	assert.Equal(t, []Tag{
		{Name: "x"},
		{Name: "y"},
		{Name: "5"},
		{Name: `{"label":"z"}`},
		{Name: `{"name":7}`},
		{Name: "null"},
		{Name: "[1,2]"},
	}, got)
}

func TestTagInputFromYAML(t *testing.T) {
	var tags []TagInput
	require.NoError(t, yaml.Unmarshal([]byte("- x\n- name: y\n- 5\n"), &tags))

	require.Len(t, tags, 3)
	assert.Equal(t, Tag{Name: "x"}, tags[0].Normalize())
	assert.Equal(t, Tag{Name: "y"}, tags[1].Normalize())
	assert.Equal(t, Tag{Name: "5"}, tags[2].Normalize())
}

func TestServiceIDNormalization(t *testing.T) {
	three := int64(3)
	minusTwo := int64(-2)

	tests := []struct {
		name    string
		input   ServiceIDInput
		want    *int64
		wantErr bool
	}{
		{"absent", ServiceIDInput{}, nil, false},
		{"numeric string", ServiceIDFromString("3"), &three, false},
		{"padded numeric string", ServiceIDFromString(" 3 "), &three, false},
		{"integer", ServiceIDFromInt(3), &three, false},
		{"negative integer", ServiceIDFromInt(-2), &minusTwo, false},
		{"empty string", ServiceIDFromString(""), nil, false},
		{"zero", ServiceIDFromInt(0), nil, false},
		{"non-numeric", ServiceIDFromString("abc"), nil, true},
		// Partial numbers are rejected rather than truncated to their prefix.
		{"trailing garbage", ServiceIDFromString("3abc"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidServiceID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceIDFromJSON(t *testing.T) {
	tests := []struct {
		body    string
		want    any
		wantErr bool
	}{
		{`{"serviceId": "3"}`, int64(3), false},
		{`{"serviceId": 3}`, int64(3), false},
		{`{"serviceId": null}`, nil, false},
		{`{}`, nil, false},
		{`{"serviceId": "abc"}`, nil, true},
		// Fractions are rejected too, even 3.0.
		{`{"serviceId": 3.5}`, nil, true},
		{`{"serviceId": 3.0}`, nil, true},
		{`{"serviceId": true}`, nil, true},
		{`{"serviceId": {"id": 3}}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var in DocumentInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))

			got, err := in.ServiceID.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidServiceID)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.want, *got)
			}
		})
	}
}

func TestDocumentInputNormalize(t *testing.T) {
	var in DocumentInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Asterisk dialplan",
		"content": "...",
		"tags": ["x", {"name": "y"}, 5],
		"serviceId": "3"
	}`), &in))

	payload, err := in.Normalize()
	require.NoError(t, err)

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Asterisk dialplan",
		"content": "...",
		"tags": [{"name": "x"}, {"name": "y"}, {"name": "5"}],
		"serviceId": 3,
		"is_published": false
	}`, string(body))
}

func TestDocumentInputNormalizeRejectsServiceID(t *testing.T) {
	in := DocumentInput{Title: "t", ServiceID: ServiceIDFromString("abc")}
	_, err := in.Normalize()
	assert.ErrorIs(t, err, ErrInvalidServiceID)
}

func TestDocumentInputNormalizeEmptyTags(t *testing.T) {
	payload, err := DocumentInput{Title: "t"}.Normalize()
	require.NoError(t, err)
	assert.NotNil(t, payload.Tags, "tags are sent as an empty list, not null")
	assert.Nil(t, payload.ServiceID)
}

func TestInputFrom(t *testing.T) {
	sid := int64(4)
	doc := Document{ID: 7, Title: "t", Tags: []Tag{{Name: "a"}}, ServiceID: &sid}

	payload, err := InputFrom(doc).Normalize()
	require.NoError(t, err)
	assert.Equal(t, int64(7), payload.ID)
	assert.Equal(t, []Tag{{Name: "a"}}, payload.Tags)
	require.NotNil(t, payload.ServiceID)
	assert.Equal(t, int64(4), *payload.ServiceID)
}
