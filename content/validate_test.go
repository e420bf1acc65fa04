package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCodecRoundTrip(t *testing.T) {
	original := map[string]string{
		"name":     "Title",
		"position": "2",
		"type":     "1",
	}
	assert.Equal(t, original, decodeMap(encodeMap(original)))
}

func TestMapCodecStableEncoding(t *testing.T) {
	m := map[string]string{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "a=1:b=2:c=3", encodeMap(m))
}

func TestMapCodecMalformed(t *testing.T) {
	assert.Empty(t, decodeMap(""))
	// segments without an equals sign are skipped
	assert.Equal(t, map[string]string{"a": "1"}, decodeMap("a=1:broken"))
}

func TestValidateChars(t *testing.T) {
	assert.NoError(t, validateChars("name", "index.html", nameChars))
	assert.Error(t, validateChars("name", "with space", nameChars))
	assert.Error(t, validateChars("element", "UPPER", elementChars))
}

func TestSiteMatchScore(t *testing.T) {
	site := &Site{&Content{
		category: CategorySite,
		attrs: map[string]string{
			siteAttrProtocol:  "http",
			siteAttrHost:      "www.example.com",
			siteAttrPort:      "80",
			siteAttrDirectory: "/shop/",
		},
	}}

	// exact host, exact port, directory prefix
	assert.Equal(t, 10000+1000+6, site.matchScore("http", "www.example.com", 80, "/shop/cart"))

	// any mismatch fails outright
	assert.Zero(t, site.matchScore("https", "www.example.com", 80, "/shop/"))
	assert.Zero(t, site.matchScore("http", "other.example.com", 80, "/shop/"))
	assert.Zero(t, site.matchScore("http", "www.example.com", 8080, "/shop/"))
	assert.Zero(t, site.matchScore("http", "www.example.com", 80, "/blog/"))

	// wildcards match anything but score nothing
	site.attrs[siteAttrHost] = "*"
	site.attrs[siteAttrPort] = "0"
	assert.Equal(t, 6, site.matchScore("http", "anything", 1234, "/shop/"))
}

func TestSectionPropertyOrdering(t *testing.T) {
	section := &Section{&Content{
		category: CategorySection,
		attrs:    map[string]string{},
	}}

	require.NoError(t, section.SetProperty(DocumentProperty{ID: "zz", Name: "alpha", Position: 1}))
	require.NoError(t, section.SetProperty(DocumentProperty{ID: "aa", Name: "beta", Position: 2}))
	require.NoError(t, section.SetProperty(DocumentProperty{ID: "mm", Name: "alpha", Position: 2}))

	props := section.Properties()
	require.Len(t, props, 3)
	assert.Equal(t, "zz", props[0].ID) // position 1 first
	assert.Equal(t, "mm", props[1].ID) // then position 2 by name
	assert.Equal(t, "aa", props[2].ID)
}
