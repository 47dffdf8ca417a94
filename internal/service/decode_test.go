package service

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("raw and html return the body", func(t *testing.T) {
		v, err := decode([]byte("<p>hi</p>"), DecodeRaw)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", v)

		v, err = decode([]byte("<p>hi</p>"), DecodeHTML)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", v)
	})

	t.Run("json map", func(t *testing.T) {
		v, err := decode([]byte(`{"a":1,"b":"x"}`), DecodeJSONMap)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1), "b": "x"}, v)
	})

	t.Run("json map rejects arrays", func(t *testing.T) {
		_, err := decode([]byte(`[1,2]`), DecodeJSONMap)
		var derr *DecodeError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, DecodeJSONMap, derr.Strategy)
	})

	t.Run("json object accepts any value", func(t *testing.T) {
		v, err := decode([]byte(`[1,"two"]`), DecodeJSONObject)
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1), "two"}, v)
	})

	t.Run("empty body decodes to nil", func(t *testing.T) {
		v, err := decode([]byte("  "), DecodeJSONMap)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("xml", func(t *testing.T) {
		v, err := decode([]byte(`<?xml version="1.0"?><users><user id="7">Ann</user></users>`), DecodeXML)
		require.NoError(t, err)
		doc, ok := v.(*etree.Document)
		require.True(t, ok)
		assert.Equal(t, "users", doc.Root().Tag)
		user := doc.FindElement("//user")
		require.NotNil(t, user)
		assert.Equal(t, "7", user.SelectAttrValue("id", ""))
		assert.Equal(t, "Ann", user.Text())
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := decode([]byte(`<a x=1></a>`), DecodeXML)
		var derr *DecodeError
		assert.True(t, errors.As(err, &derr))
	})

	t.Run("text is not xml", func(t *testing.T) {
		_, err := decode([]byte(`plain text`), DecodeXML)
		var derr *DecodeError
		assert.True(t, errors.As(err, &derr))
	})
}
