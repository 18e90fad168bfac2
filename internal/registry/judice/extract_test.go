package judice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pretor/internal/registry"
)

const hearingsPage = `
<div class="process-list">
<h2 class="block"><a href="/pgj/clients/1234">FULANO DA SILVA</a></h2>
<div class="well">
  <b>Processo:</b> 123456
  <b>CNJ:</b> 0000281-52.2024.5.14.0081
  <b>Partes:</b> FULANO DA SILVA - RE LTDA
</div>
<ul>
<li>
  <div class="calendar">05mar/2025 14:30</div>
  <div class="details"><strong>Audiência de Instrução</strong>
    Modificado por usuario em 10/01/2025 09:15:00 (ID: 9001)
  </div>
</li>
<li>
  <div class="calendar">12abr/2025 09:00</div>
  <div class="details"><strong>Perícia Médica</strong>
    <a href="https://meet.example.com/xyz">link</a>
    Modificado por usuario em 11/01/2025 10:00:00 (ID: 9002)
  </div>
</li>
<li>
  <div class="calendar">20mai/2025 11:00</div>
  <div class="details"><strong>Audiência de Conciliação</strong>
    Modificado por usuario em 12/01/2025 08:30:00 (ID: 9003)
  </div>
</li>
<li>
  <div class="details"><strong>Audiência</strong> sem data nem id</div>
</li>
</ul>
</div>`

func TestExtractHearings(t *testing.T) {
	hearings := extractHearings(hearingsPage)
	require.Len(t, hearings, 3)

	assert.Equal(t, int64(9001), hearings[0].RegistryID)
	assert.Equal(t, registry.KindHearing, hearings[0].Kind)
	assert.Equal(t, "", hearings[0].Variant)
	assert.Equal(t, time.Date(2025, time.March, 5, 14, 30, 0, 0, time.Local), hearings[0].Date)
	assert.Equal(t, time.Date(2025, time.January, 10, 9, 15, 0, 0, time.Local), hearings[0].LastModified)
	assert.Empty(t, hearings[0].Link)

	assert.Equal(t, int64(9002), hearings[1].RegistryID)
	assert.Equal(t, registry.KindExamination, hearings[1].Kind)
	assert.Equal(t, "https://meet.example.com/xyz", hearings[1].Link)

	assert.Equal(t, int64(9003), hearings[2].RegistryID)
	assert.Equal(t, registry.KindHearing, hearings[2].Kind)
	assert.Equal(t, "conciliation", hearings[2].Variant)
}

func TestExtractHearings_RegistryOrderPreserved(t *testing.T) {
	hearings := extractHearings(hearingsPage)
	require.Len(t, hearings, 3)
	assert.Equal(t, []int64{9001, 9002, 9003}, []int64{
		hearings[0].RegistryID, hearings[1].RegistryID, hearings[2].RegistryID,
	})
}

func TestExtractLawsuitInfo(t *testing.T) {
	info, err := extractLawsuitInfo(hearingsPage)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), info.ClientRegistryID)
	assert.Equal(t, "0000281-52.2024.5.14.0081", info.CNJ)
	assert.Equal(t, "FULANO DA SILVA", info.AdverseParty)
}

func TestExtractLawsuitInfo_MissingClientLink(t *testing.T) {
	_, err := extractLawsuitInfo(`<div class="well"><b>CNJ:</b> 123</div>`)
	require.Error(t, err)
}

func TestExtractClientInfo(t *testing.T) {
	fragment := `<div class="client-bar-parent">
	  <div>Nome: MARIA OLIVEIRA SANTOS</div>
	  <div>CPF: 123.456.789-00 Celular: 51 98022-3200</div>
	</div>`

	info, err := extractClientInfo(fragment)
	require.NoError(t, err)
	assert.Equal(t, "MARIA OLIVEIRA SANTOS", info.Name)
	assert.Equal(t, "123.456.789-00", info.TaxID)
	assert.Equal(t, "51 98022-3200", info.CellPhone)
}

func TestExtractClientInfo_NoPhoneIsValid(t *testing.T) {
	info, err := extractClientInfo(`<div><div>Nome: JOAO</div></div>`)
	require.NoError(t, err)
	assert.Equal(t, "JOAO", info.Name)
	assert.Empty(t, info.CellPhone)
}

func TestParsePublicationRow(t *testing.T) {
	row := map[string]string{
		"0": `<input type="checkbox" value="5511">`,
		"1": "15/02/2025",
		"2": "0000281-52.2024.5.14.0081",
	}

	summary, ok := parsePublicationRow(row)
	require.True(t, ok)
	assert.Equal(t, int64(5511), summary.RegistryID)
	assert.Equal(t, "0000281-52.2024.5.14.0081", summary.CNJ)
	assert.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.Local), summary.ExpeditionDate)
}

func TestParsePublicationRow_Malformed(t *testing.T) {
	_, ok := parsePublicationRow(map[string]string{"0": "no value here", "1": "15/02/2025", "2": "x"})
	assert.False(t, ok)

	_, ok = parsePublicationRow(map[string]string{"0": `value="1"`, "1": "not a date", "2": "x"})
	assert.False(t, ok)
}
