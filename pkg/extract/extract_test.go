package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galleryscraper/pkg/document"
)

func parse(t *testing.T, html string) *document.Document {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(html), "http://example.com/gallery/index.html")
	require.NoError(t, err)
	return doc
}

func TestImagesInDocumentOrder(t *testing.T) {
	doc := parse(t, `<body>
<header><a href="/" class="brand"><img id="site-logo" src="/logo.png" alt="Home"></a></header>
<div class="grid">
  <a href="photo/1.html"><img class="gallery-thumb" src="thumbs/1.jpg" width="200" height="150"></a>
  <a href="photo/2.html#top"><img class="gallery-thumb" src="thumbs/2.jpg"></a>
</div>
<img src="">
</body>`)

	images := Images(doc)
	require.Len(t, images, 4)

	for i, img := range images {
		assert.Equal(t, i, img.Index)
	}

	logo := images[0]
	assert.Equal(t, "http://example.com/logo.png", logo.Source)
	assert.Equal(t, "http://example.com/", logo.Link)
	assert.Equal(t, "Home", logo.Alt)
	assert.Equal(t, []string{"brand", "site-logo"}, logo.Markers)

	first := images[1]
	assert.Equal(t, "http://example.com/gallery/thumbs/1.jpg", first.Source)
	assert.Equal(t, "http://example.com/gallery/photo/1.html", first.Link)
	assert.True(t, first.HasLink())
	require.NotNil(t, first.Size)
	assert.Equal(t, Size{Width: 200, Height: 150}, *first.Size)
	assert.Equal(t, []string{"a", "div", "body"}, first.Container.Path)
	assert.Equal(t, 2, first.Container.Siblings)

	second := images[2]
	assert.Equal(t, "http://example.com/gallery/photo/2.html", second.Link, "fragment dropped")
	assert.Nil(t, second.Size)
	assert.Equal(t, first.Signature(), second.Signature())
	assert.NotEqual(t, first.Signature(), logo.Signature())

	empty := images[3]
	assert.Equal(t, "", empty.Source)
	assert.False(t, empty.HasLink())
}

func TestSourceFallbacks(t *testing.T) {
	doc := parse(t, `<body>
<img src="data:image/gif;base64,R0lGOD" data-src="/lazy/a.jpg">
<img srcset="s.jpg 320w, l.jpg 1280w, m.jpg 640w">
<img src="data:image/png;base64,AAAA">
<img data-srcset="one.jpg 1x, two.jpg 2x">
<img data-caption="Sunset" data-zoom-image="/full/zoom.webp" data-id="7">
<img data-caption="no image here">
</body>`)

	images := Images(doc)
	require.Len(t, images, 6)
	assert.Equal(t, "http://example.com/lazy/a.jpg", images[0].Source)
	assert.Equal(t, "http://example.com/gallery/l.jpg", images[1].Source)
	assert.Equal(t, "data:image/png;base64,AAAA", images[2].Source)
	assert.Equal(t, "http://example.com/gallery/two.jpg", images[3].Source)
	assert.Equal(t, "http://example.com/full/zoom.webp", images[4].Source, "unknown data attribute with an image URL")
	assert.Equal(t, "", images[5].Source)
}

func TestSizeInference(t *testing.T) {
	doc := parse(t, `<body>
<img src="a.jpg" width="640px" height="480">
<img src="b.jpg" style="max-width: 10px; width: 300px; height:200.5px">
<img src="photo-1024x768.jpg">
<img src="c.jpg" width="100%" height="50">
<img src="d.jpg" width="80">
</body>`)

	images := Images(doc)
	require.Len(t, images, 5)

	assert.Equal(t, &Size{Width: 640, Height: 480}, images[0].Size)
	assert.Equal(t, &Size{Width: 300, Height: 200}, images[1].Size)
	assert.Equal(t, &Size{Width: 1024, Height: 768, Inferred: true}, images[2].Size)
	assert.Nil(t, images[3].Size)
	assert.Nil(t, images[4].Size)

	area, ok := images[2].Area()
	assert.True(t, ok)
	assert.Equal(t, 1024*768, area)
	_, ok = images[4].Area()
	assert.False(t, ok)
}

func TestLinkFiltering(t *testing.T) {
	doc := parse(t, `<body>
<a href="#"><img src="1.jpg"></a>
<a href="javascript:void(0)"><img src="2.jpg"></a>
<a><img src="3.jpg"></a>
<a href="https://img.example.net/full/4.png"><span><img src="4.jpg"></span></a>
</body>`)

	images := Images(doc)
	require.Len(t, images, 4)
	assert.False(t, images[0].HasLink())
	assert.False(t, images[1].HasLink())
	assert.False(t, images[2].HasLink())
	assert.Equal(t, "https://img.example.net/full/4.png", images[3].Link)
}

func TestSignatureIgnoresItemNumbers(t *testing.T) {
	a := ImageElement{Markers: []string{"photo", "photo-12"}, Container: Container{Path: []string{"li", "ul"}, Siblings: 5}}
	b := ImageElement{Markers: []string{"photo", "photo-13"}, Container: Container{Path: []string{"li", "ul"}, Siblings: 6}}
	c := ImageElement{Markers: []string{"photo"}, Container: Container{Path: []string{"li", "ul"}, Siblings: 9}}

	assert.Equal(t, a.Signature(), b.Signature(), "same sibling bucket, numbered ids collapse")
	assert.NotEqual(t, a.Signature(), c.Signature())
	assert.Equal(t, a.Layout(), c.Layout(), "layout ignores the sibling bucket")

	d := ImageElement{Markers: []string{"photo"}, Container: Container{Path: []string{"li", "ol"}, Siblings: 9}}
	assert.NotEqual(t, c.Layout(), d.Layout())
}

func TestIsImageURL(t *testing.T) {
	tests := map[string]bool{
		"http://example.com/full/a.JPG":         true,
		"http://example.com/full/a.webp?w=1200": true,
		"http://example.com/photo/1.html":       false,
		"http://example.com/view?img=a.jpg":     false,
		"http://example.com/":                   false,
		"http://[::1":                           false,
	}
	for raw, want := range tests {
		assert.Equal(t, want, IsImageURL(raw), raw)
	}
}

func TestLargest(t *testing.T) {
	_, ok := Largest(nil)
	assert.False(t, ok)

	elems := []ImageElement{
		{Index: 0},
		{Index: 1, Size: &Size{Width: 100, Height: 100}},
		{Index: 2, Size: &Size{Width: 800, Height: 600}},
		{Index: 3, Size: &Size{Width: 600, Height: 800}},
	}
	best, ok := Largest(elems)
	require.True(t, ok)
	assert.Equal(t, 2, best.Index, "ties go to the earliest")

	best, _ = Largest([]ImageElement{{Index: 4}, {Index: 5}})
	assert.Equal(t, 4, best.Index, "no known size falls back to document order")
}
