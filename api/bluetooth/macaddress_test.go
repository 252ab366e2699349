package bluetooth

import (
	"testing"

	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMAC(t *testing.T) {
	for _, input := range []string{
		"AA:BB:CC:DD:EE:FF",
		"aa:bb:cc:dd:ee:ff",
		"AA_BB_CC_DD_EE_FF",
	} {
		mac, err := ParseMAC(input)

		require.NoError(t, err, input)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", mac.String())
		assert.Equal(t, "AA_BB_CC_DD_EE_FF", mac.UnderscoreString())
	}
}

func TestParseMACInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"AA:BB:CC",
		"AA:BB:CC:DD:EE:FF:00",
		"GG:BB:CC:DD:EE:FF",
		"not an address",
	} {
		_, err := ParseMAC(input)

		assert.ErrorIs(t, err, errorkinds.ErrInvalidAddress, input)
	}
}

func TestMatchesFuzzy(t *testing.T) {
	mac, err := ParseMAC("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)

	assert.True(t, mac.MatchesFuzzy("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"))
	assert.True(t, mac.MatchesFuzzy("bluez_sink.aa_bb_cc_dd_ee_ff.a2dp_sink"))
	assert.True(t, mac.MatchesFuzzy("AA:BB:CC:DD:EE:FF"))
	assert.False(t, mac.MatchesFuzzy("/org/bluez/hci0/dev_11_22_33_44_55_66"))
}

func TestIsNil(t *testing.T) {
	var empty MacAddress
	assert.True(t, empty.IsNil())

	mac, err := ParseMAC("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.False(t, mac.IsNil())
}

func TestMacAddressText(t *testing.T) {
	mac, err := ParseMAC("01:23:45:67:89:AB")
	require.NoError(t, err)

	data, err := mac.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "01:23:45:67:89:AB", string(data))

	var decoded MacAddress
	require.NoError(t, decoded.UnmarshalText(data))
	assert.Equal(t, mac, decoded)
}
