package rylr896

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRCV(t *testing.T) {
	jsonPayload := `{"pi":"node-A","ts":1700000000,"rssi_dbm":-40.9}`

	for _, tt := range []struct {
		name string
		in   string
		want Packet
		ok   bool
	}{
		{
			name: "plain payload",
			in:   "50,5,HELLO,-99,40",
			want: Packet{Addr: 50, Payload: []byte("HELLO"), RSSI: -99, SNR: 40},
			ok:   true,
		},
		{
			name: "payload containing commas",
			in:   fmt.Sprintf("1,%d,%s,-42,11", len(jsonPayload), jsonPayload),
			want: Packet{Addr: 1, Payload: []byte(jsonPayload), RSSI: -42, SNR: 11},
			ok:   true,
		},
		{
			name: "empty payload",
			in:   "7,0,,-80,20",
			want: Packet{Addr: 7, Payload: []byte{}, RSSI: -80, SNR: 20},
			ok:   true,
		},
		{name: "missing fields", in: "50,5,HELLO"},
		{name: "length longer than data", in: "50,99,HELLO,-99,40"},
		{name: "non-numeric address", in: "fifty,5,HELLO,-99,40"},
		{name: "non-numeric rssi", in: "50,5,HELLO,loud,40"},
		{name: "negative length", in: "50,-1,HELLO,-99,40"},
		{name: "empty", in: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRCV(tt.in)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want.Addr, got.Addr)
			assert.Equal(t, tt.want.Payload, got.Payload)
			assert.Equal(t, tt.want.RSSI, got.RSSI)
			assert.Equal(t, tt.want.SNR, got.SNR)
		})
	}
}
