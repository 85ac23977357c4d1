package panelfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/render"
)

func TestEncodeDecode_RoundTripKeepsOrder(t *testing.T) {
	set := Set{
		{URL: "https://a.test", Filter: "title", IsWithCSS: true, OutputOption: 0},
		{URL: "https://b.test", Filter: "<b>", IsWithCSS: false, OutputOption: 2},
		{URL: "https://c.test", Filter: "", IsWithCSS: true, OutputOption: 1},
	}

	data, err := Encode(set)
	require.NoError(t, err)
	require.Contains(t, string(data), `"0": {"url":"https://a.test","filter":"title","is_with_css":true,"output_option":0}`)
	require.Contains(t, string(data), `"filter":"<b>"`)

	got, problems, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Equal(t, set, got)
}

func TestEncode_EmptySet(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(data))

	got, problems, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Empty(t, got)
}

func TestDecode_OrdersKeysNumerically(t *testing.T) {
	var b strings.Builder
	b.WriteString("{")
	for i := 11; i >= 0; i-- {
		if i != 11 {
			b.WriteString(",")
		}
		b.WriteString(`"` + strconv.Itoa(i) + `": {"url": "https://x.test/` + strconv.Itoa(i) + `", "filter": "", "is_with_css": true, "output_option": 0}`)
	}
	b.WriteString("}")

	got, _, err := Decode([]byte(b.String()))
	require.NoError(t, err)
	require.Len(t, got, 12)
	for i, rec := range got {
		require.Equal(t, "https://x.test/"+strconv.Itoa(i), rec.URL)
	}
}

func TestDecode_SkipsRecordsMissingFields(t *testing.T) {
	data := []byte(`{
  "0": {"url": "https://a.test", "filter": "x", "is_with_css": true, "output_option": 1},
  "1": {"url": "https://b.test", "filter": "x", "output_option": 1},
  "2": {"url": "https://c.test", "filter": "", "is_with_css": false, "output_option": 7},
  "3": {"url": 3, "filter": "", "is_with_css": false, "output_option": 0},
  "4": {"url": "https://d.test", "filter": "", "is_with_css": false, "output_option": 2}
}`)

	got, problems, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "https://a.test", got[0].URL)
	require.Equal(t, "https://d.test", got[1].URL)

	require.Len(t, problems, 3)
	require.Equal(t, "1", problems[0].Key)
	require.Contains(t, problems[0].Error(), "is_with_css")
	require.Equal(t, "2", problems[1].Key)
	require.Equal(t, "3", problems[2].Key)
}

func TestDecode_RejectsNonObject(t *testing.T) {
	for _, in := range []string{"", "[]", "not json", `"text"`} {
		_, _, err := Decode([]byte(in))
		require.ErrorIs(t, err, ErrCorrupt, "input %q", in)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSaveLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	set := Set{{URL: "https://a.test", Filter: "f", IsWithCSS: true, OutputOption: 2}}

	abs, err := Save(path, set)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(abs))

	got, problems, err := Load(abs)
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Equal(t, set, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
}

func TestRecord_SettingsConversion(t *testing.T) {
	s := panel.Settings{URL: "https://a.test", Filter: "x", Match: extract.TextContent, Display: render.CleanText}
	rec := FromSettings(s)
	require.Equal(t, Record{URL: "https://a.test", Filter: "x", IsWithCSS: false, OutputOption: 2}, rec)
	require.Equal(t, s, rec.Settings())

	require.Equal(t, extract.CSSClass, Record{IsWithCSS: true}.Settings().Match)
}

