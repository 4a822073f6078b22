package listing

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banner = `<div style="background-color: #90D1E7; color: #fff;padding:4px;">`

func parse(t *testing.T, body string) *Page {
	t.Helper()
	base, err := url.Parse("https://ninova.itu.edu.tr/Sinif/1.2/DersDosyalari")
	require.NoError(t, err)
	page, err := Parse(strings.NewReader(body), base, DefaultOptions())
	require.NoError(t, err)
	return page
}

func TestBreadcrumb(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "nested path",
			body: banner + `/Lecture Notes (X)/02.Folder/</div>`,
			want: filepath.Join("Lecture Notes (X)", "02.Folder"),
		},
		{
			name: "repeated separators and markup",
			body: banner + `<span> // Ders Dosyaları </span>/// <b>Week 1</b> /</div>`,
			want: filepath.Join("Ders Dosyaları", "Week 1"),
		},
		{
			name: "segments are sanitized",
			body: banner + `/Notes: part*1/Homework Page/</div>`,
			want: filepath.Join("Notes part1", "Homework"),
		},
		{
			name: "dot segments dropped",
			body: banner + `/../Week 2/./</div>`,
			want: "Week 2",
		},
		{
			name: "style matched loosely",
			body: `<div style="background-color:#90d1e7;color:#FFF; padding: 4px">/A/</div>`,
			want: "A",
		},
		{
			name: "only separators",
			body: banner + `///</div>`,
			want: "",
		},
		{
			name: "no banner",
			body: `<div style="color: red">/A/B/</div>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(t, tt.body).Breadcrumb())
		})
	}
}

func TestBreadcrumbCustomStyle(t *testing.T) {
	base, _ := url.Parse("https://portal.example/")
	opts := DefaultOptions()
	opts.BreadcrumbStyle = "border: 1px"
	page, err := Parse(strings.NewReader(`<div style="border:1px;">/X/Y</div>`), base, opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("X", "Y"), page.Breadcrumb())
}

func TestEntriesAnchorWrapsImage(t *testing.T) {
	page := parse(t, `<table>
		<tr><td><a href="/Sinif/1.2/DersDosyalari?g100"><img src="/images/ds/folder.png"> Week 1 </a></td></tr>
		<tr><td><a href="/Sinif/1.2/DersDosyalari?g101"><img src="/images/ds/ikon-pdf.png">Syllabus</a></td></tr>
		<tr><td><a href="/Sinif/1.2/DersDosyalari?g102"><img src="/images/ds/ikon-doc.png">Notes.doc</a></td></tr>
	</table>`)

	entries := slices.Collect(page.Entries())
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Label: "Week 1", URL: "https://ninova.itu.edu.tr/Sinif/1.2/DersDosyalari?g100", Kind: KindFolder}, entries[0])
	assert.Equal(t, Entry{Label: "Syllabus", URL: "https://ninova.itu.edu.tr/Sinif/1.2/DersDosyalari?g101", Kind: KindDocument}, entries[1])
	assert.Equal(t, KindUnknown, entries[2].Kind)
}

func TestEntriesSiblingsInCell(t *testing.T) {
	page := parse(t, `<table><tr>
		<td><img src="/images/ds/folder.png"><a href="?g7">Lab
		Sheets</a></td>
		<td><img src="/images/ds/ikon-pdf.png"><span><a href="https://ninova.itu.edu.tr/Sinif/1.2/DersDosyalari?g8">hw1.pdf</a></span></td>
		<td><a href="?g9">no icon here</a></td>
	</tr></table>`)

	entries := slices.Collect(page.Entries())
	require.Len(t, entries, 2)

	assert.Equal(t, "Lab Sheets", entries[0].Label)
	assert.Equal(t, "https://ninova.itu.edu.tr/Sinif/1.2/DersDosyalari?g7", entries[0].URL)
	assert.Equal(t, KindFolder, entries[0].Kind)

	assert.Equal(t, "hw1.pdf", entries[1].Label)
	assert.Equal(t, KindDocument, entries[1].Kind)
}

func TestEntriesOuterCellDescends(t *testing.T) {
	page := parse(t, `<table><tr><td>
		<table><tr>
			<td><a href="/a"><img src="folder.png">A</a></td>
			<td><a href="/b"><img src="ikon-pdf.png">B</a></td>
		</tr></table>
	</td></tr></table>`)

	var labels []string
	for e := range page.Entries() {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"A", "B"}, labels)
}

func TestEntriesOutsideTable(t *testing.T) {
	page := parse(t, `<ul>
		<li><a href="/f1"><img src="folder.png">First</a></li>
		<li><a href="/plain">Plain link</a></li>
		<li><a href="/d1"><i><img src="ikon-pdf.png"></i>Doc</a></li>
	</ul>`)

	entries := slices.Collect(page.Entries())
	require.Len(t, entries, 2)
	assert.Equal(t, "https://ninova.itu.edu.tr/f1", entries[0].URL)
	assert.Equal(t, "https://ninova.itu.edu.tr/d1", entries[1].URL)
}

func TestEntriesSkipsNonNavigableHrefs(t *testing.T) {
	page := parse(t, `<div>
		<a href=""><img src="folder.png">empty</a>
		<a href="#top"><img src="folder.png">fragment</a>
		<a href="javascript:void(0)"><img src="folder.png">script</a>
		<a href="MAILTO:x@y"><img src="ikon-pdf.png">mail</a>
		<a><img src="folder.png">missing</a>
		<a href="/ok"><img src="folder.png">ok</a>
	</div>`)

	entries := slices.Collect(page.Entries())
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].Label)
}

func TestEntriesRestartableAndStoppable(t *testing.T) {
	page := parse(t, `<div>
		<a href="/1"><img src="folder.png">1</a>
		<a href="/2"><img src="folder.png">2</a>
		<a href="/3"><img src="folder.png">3</a>
	</div>`)

	first := slices.Collect(page.Entries())
	second := slices.Collect(page.Entries())
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)

	count := 0
	for range page.Entries() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestClassify(t *testing.T) {
	opts := DefaultOptions()
	opts.DocumentIcons = []string{"ikon-pdf.png", "ikon-zip.png"}

	tests := []struct {
		src  string
		want Kind
	}{
		{"/images/ds/folder.png", KindFolder},
		{"/images/ds/ikon-pdf.png", KindDocument},
		{"/images/ds/ikon-zip.png", KindDocument},
		{"/images/ds/ikon-ppt.png", KindUnknown},
		{"", KindUnknown},
		// Contrived src carrying both tokens: folder wins.
		{"/images/folder.png?alt=ikon-pdf.png", KindFolder},
		{"/images/ikon-pdf.png?alt=folder.png", KindFolder},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.src, opts))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "document", KindDocument.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestParseRequiresBase(t *testing.T) {
	_, err := Parse(strings.NewReader("<p></p>"), nil, DefaultOptions())
	assert.Error(t, err)
}
