package observability

import (
	"reflect"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		raw  string
		want map[string]string
	}{
		{raw: "", want: nil},
		{raw: "x-api-key=abc", want: map[string]string{"x-api-key": "abc"}},
		{raw: " a = 1 , b=2,broken,=x,c= ", want: map[string]string{"a": "1", "b": "2"}},
		{raw: "novalue", want: nil},
	}
	for _, tc := range tests {
		if got := parseHeaders(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseHeaders(%q) = %v want %v", tc.raw, got, tc.want)
		}
	}
}
