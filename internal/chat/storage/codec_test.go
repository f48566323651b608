package storage_test

import (
	"testing"

	"github.com/picatz/chatshelf/internal/chat/storage"
	"github.com/shoenig/test/must"
)

func TestStringCodec_raw_bytes(t *testing.T) {
	var codec storage.StringCodec

	b, err := codec.EncodeValue(`{"id":"a"}`)
	must.NoError(t, err)
	must.Eq(t, `{"id":"a"}`, string(b))

	k, err := codec.DecodeKey([]byte("chat_a"))
	must.NoError(t, err)
	must.Eq(t, "chat_a", k)
}

func TestStringCodec_round_trips_unicode(t *testing.T) {
	var codec storage.StringCodec

	b, err := codec.EncodeKey("chat_ünï")
	must.NoError(t, err)

	k, err := codec.DecodeKey(b)
	must.NoError(t, err)
	must.Eq(t, "chat_ünï", k)
}
