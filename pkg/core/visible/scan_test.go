package visible

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renderedPage = `<html><body>
<table class="report">
<tr>
  <td><a class="a" href="javascript:void(0);" onclick="top.Show.showAR( this, 'defref_us-gaap_AssetsCurrent', window );">Total current assets</a></td>
  <td class="nump">$ 49,616</td>
</tr>
<tr>
  <td><a href="#" onclick="top.Show.showAR( this, 'defref_tsla_DigitalAssetsNetNonCurrent', window );">Digital assets, net</a></td>
  <td class="nump">$ 1,076</td>
</tr>
<tr>
  <td><a href="Show.aspx?defref_us-gaap_Liabilities&amp;pretty">Total liabilities</a></td>
  <td class="nump">$ 48,390</td>
</tr>
<tr>
  <td><a href="http://example.com/unrelated">A plain link</a></td>
</tr>
</table>
</body></html>`

func TestScanHTMLExtractsDefrefConcepts(t *testing.T) {
	set, err := ScanHTML(strings.NewReader(renderedPage))
	require.NoError(t, err)

	assert.True(t, set.Allows("us-gaap:AssetsCurrent", nil))
	assert.True(t, set.Allows("tsla:DigitalAssetsNetNonCurrent", nil))
	assert.True(t, set.Allows("us-gaap:Liabilities", nil), "href-embedded refs also count")
	assert.False(t, set.Allows("us-gaap:Revenues", nil))
	assert.Equal(t, []string{"assetscurrent", "digitalassetsnetnoncurrent", "liabilities"}, set.Concepts())
}

func TestScanHTMLWithoutAnchorsYieldsEmptySet(t *testing.T) {
	set, err := ScanHTML(strings.NewReader("<html><body><p>no report here</p></body></html>"))
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestScanAllMergesPages(t *testing.T) {
	pageA := `<a onclick="top.Show.showAR( this, 'defref_us-gaap_Assets', window );">x</a>`
	pageB := `<a onclick="top.Show.showAR( this, 'defref_us-gaap_Revenues', window );">y</a>`

	set, err := ScanAll(strings.NewReader(pageA), strings.NewReader(pageB))
	require.NoError(t, err)
	assert.True(t, set.Allows("us-gaap:Assets", nil))
	assert.True(t, set.Allows("us-gaap:Revenues", nil))
	assert.Equal(t, 2, set.Len())
}

func TestExtractDefref(t *testing.T) {
	cases := map[string]string{
		"top.Show.showAR( this, 'defref_us-gaap_AssetsCurrent', window );": "us-gaap:AssetsCurrent",
		`javascript:show("defref_tsla_EnergyMember")`:                      "tsla:EnergyMember",
		"Show.aspx?defref_dei_EntityRegistrantName&x=1":                    "dei:EntityRegistrantName",
		"defref_NoPrefixConcept":                                           "NoPrefixConcept",
		"nothing here":                                                     "",
		"defref_":                                                          "",
	}
	for attr, want := range cases {
		assert.Equal(t, want, extractDefref(attr), "attr %q", attr)
	}
}
