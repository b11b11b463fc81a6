package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<html><body>
<ul>
  <li class="item a"><span class="t">  Erstes
       Element  </span><img src="/1.jpg"></li>
  <li class="item b"><span class="t">Zweites</span></li>
</ul>
</body></html>`

func TestDocument_QuerySelectorAll(t *testing.T) {
	d, err := NewDocumentFromString(doc)
	require.NoError(t, err)

	items, err := d.QuerySelectorAll("li.item")
	require.NoError(t, err)
	require.Len(t, items, 2)

	span, err := items[0].QuerySelector("span.t")
	require.NoError(t, err)
	require.NotNil(t, span)
	text, err := span.InnerText()
	require.NoError(t, err)
	assert.Equal(t, "Erstes\nElement", text)

	img, err := items[0].QuerySelector("img")
	require.NoError(t, err)
	src, ok, err := img.Attribute("src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/1.jpg", src)

	_, ok, err = img.Attribute("alt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_QuerySelectorMissing(t *testing.T) {
	d, err := NewDocumentFromString(doc)
	require.NoError(t, err)

	el, err := d.QuerySelector("#absent")
	require.NoError(t, err)
	assert.Nil(t, el)

	items, err := d.QuerySelectorAll(".absent")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDocument_NotSelector(t *testing.T) {
	d, err := NewDocumentFromString(doc)
	require.NoError(t, err)

	items, err := d.QuerySelectorAll("li.item:not(.a)")
	require.NoError(t, err)
	require.Len(t, items, 1)
	text, _ := items[0].InnerText()
	assert.Equal(t, "Zweites", text)
}

func TestDocument_InvalidSelector(t *testing.T) {
	d, err := NewDocumentFromString(doc)
	require.NoError(t, err)

	_, err = d.QuerySelector("li[")
	assert.Error(t, err)
	_, err = d.QuerySelectorAll("li[")
	assert.Error(t, err)
}

func TestInnerText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  a  ", "a"},
		{"\n\n  a \n\n   b   c\n", "a\nb c"},
		{"\t(2 km)\t", "(2 km)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, innerText(tt.in), "innerText(%q)", tt.in)
	}
}
