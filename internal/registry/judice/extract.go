package judice

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pretor/internal/registry"
)

// The hearings page renders one <li> per event. Every field we need survives
// tag stripping, so extraction works on the flattened text of each item plus
// one href scan for the remote-attendance link.
var (
	listItemRE     = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	tagRE          = regexp.MustCompile(`<[^>]*>`)
	calendarRE     = regexp.MustCompile(`(\d{2})([a-zà-ú]{3})/(\d{4})\s*(\d{2}):(\d{2})`)
	modifiedRE     = regexp.MustCompile(`Modificado .* em (\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})`)
	hearingIDRE    = regexp.MustCompile(`\(ID: (\d+)\)`)
	meetingLinkRE  = regexp.MustCompile(`href="(https://[^"]*(?:meet|zoom|teams)[^"]*)"`)
	clientHrefRE   = regexp.MustCompile(`<h2 class="block"[^>]*>\s*<a href="[^"]*?(\d+)"`)
	wellFieldRE    = regexp.MustCompile(`(?s)<b>\s*([^<:]+?)\s*[:-]?\s*</b>\s*([^<]+)`)
	checkboxIDRE   = regexp.MustCompile(`value="(\d+)"`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
	accentStripper = strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "ô", "o", "õ", "o",
		"ú", "u", "ü", "u",
		"ç", "c",
	)
)

// Portuguese month abbreviations as the portal prints them.
var portalMonths = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

func normalize(s string) string {
	return accentStripper.Replace(strings.ToLower(s))
}

func flatten(html string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(tagRE.ReplaceAllString(html, " "), " "))
}

// extractHearings pulls every well-formed hearing from the lawsuit page,
// preserving registry order. Malformed entries (missing id, date or
// modification stamp) are dropped here; callers never see them.
func extractHearings(page string) []registry.Hearing {
	var out []registry.Hearing
	for _, match := range listItemRE.FindAllStringSubmatch(page, -1) {
		item := match[1]
		text := flatten(item)

		hearing, ok := parseHearingItem(item, text)
		if !ok {
			continue
		}
		out = append(out, hearing)
	}
	return out
}

func parseHearingItem(item, text string) (registry.Hearing, bool) {
	idMatch := hearingIDRE.FindStringSubmatch(text)
	if idMatch == nil {
		return registry.Hearing{}, false
	}
	id, err := strconv.ParseInt(idMatch[1], 10, 64)
	if err != nil {
		return registry.Hearing{}, false
	}

	date, err := parseCalendarDate(normalize(text))
	if err != nil {
		return registry.Hearing{}, false
	}

	modMatch := modifiedRE.FindStringSubmatch(text)
	if modMatch == nil {
		return registry.Hearing{}, false
	}
	modified, err := time.ParseInLocation("02/01/2006 15:04:05", modMatch[1], time.Local)
	if err != nil {
		return registry.Hearing{}, false
	}

	normalized := normalize(text)
	var kind registry.HearingKind
	switch {
	case strings.Contains(normalized, "audiencia"):
		kind = registry.KindHearing
	case strings.Contains(normalized, "pericia"):
		kind = registry.KindExamination
	default:
		return registry.Hearing{}, false
	}

	variant := ""
	if strings.Contains(normalized, "conciliacao") {
		variant = "conciliation"
	}

	link := ""
	if linkMatch := meetingLinkRE.FindStringSubmatch(item); linkMatch != nil {
		link = linkMatch[1]
	}

	return registry.Hearing{
		RegistryID:   id,
		Kind:         kind,
		Variant:      variant,
		Date:         date,
		LastModified: modified,
		Link:         link,
	}, true
}

// parseCalendarDate reads the portal's calendar block, e.g. "05mar/2025 14:30".
func parseCalendarDate(text string) (time.Time, error) {
	m := calendarRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("no calendar date in %q", text)
	}
	day, _ := strconv.Atoi(m[1])
	month, ok := portalMonths[m[2]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month abbreviation %q", m[2])
	}
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local), nil
}

// extractLawsuitInfo reads the CNJ and the owning client id from the lawsuit
// page header and detail well.
func extractLawsuitInfo(page string) (*registry.LawsuitInfo, error) {
	clientMatch := clientHrefRE.FindStringSubmatch(page)
	if clientMatch == nil {
		return nil, fmt.Errorf("client link not found")
	}
	clientID, err := strconv.ParseInt(clientMatch[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("non-numeric client id: %w", err)
	}

	fields := map[string]string{}
	for _, m := range wellFieldRE.FindAllStringSubmatch(page, -1) {
		key := normalize(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])
		if cut := strings.Split(value, " - "); len(cut) > 0 && strings.TrimSpace(cut[0]) != "" {
			value = strings.TrimSpace(cut[0])
		}
		fields[key] = value
	}

	cnj, ok := fields["cnj"]
	if !ok || cnj == "" {
		return nil, fmt.Errorf("cnj field not found")
	}

	return &registry.LawsuitInfo{
		CNJ:              cnj,
		ClientRegistryID: clientID,
		AdverseParty:     fields["partes"],
	}, nil
}

// The infobar renders a fixed set of labels. Values are sliced between
// consecutive label occurrences since the fragment is free text after
// tag stripping.
var clientLabels = []string{"nome", "id", "cpf", "nascimento", "estado civil", "e-mail", "celular"}

// extractClientInfo reduces the client infobar HTML fragment to the fields
// the sync service needs. Only the name is mandatory.
func extractClientInfo(fragment string) (*registry.ClientInfo, error) {
	text := flatten(fragment)
	// ToLower keeps byte offsets aligned with text; accent stripping would not.
	lowered := strings.ToLower(text)

	type hit struct {
		label string
		start int // label position
		value int // value position, after the colon
	}
	var hits []hit
	for _, label := range clientLabels {
		idx := strings.Index(lowered, label+":")
		if idx < 0 {
			continue
		}
		hits = append(hits, hit{label: label, start: idx, value: idx + len(label) + 1})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	fields := map[string]string{}
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		fields[h.label] = strings.TrimSpace(text[h.value:end])
	}

	name := fields["nome"]
	if name == "" {
		return nil, fmt.Errorf("name missing from infobar")
	}

	return &registry.ClientInfo{
		Name:      name,
		TaxID:     fields["cpf"],
		CellPhone: fields["celular"],
	}, nil
}

// parsePublicationRow reads one row of the publication list. The first column
// embeds the publication id inside a checkbox attribute.
func parsePublicationRow(row map[string]string) (registry.PublicationSummary, bool) {
	idMatch := checkboxIDRE.FindStringSubmatch(row["0"])
	if idMatch == nil {
		return registry.PublicationSummary{}, false
	}
	id, err := strconv.ParseInt(idMatch[1], 10, 64)
	if err != nil {
		return registry.PublicationSummary{}, false
	}

	expedition, err := parsePortalDate(row["1"])
	if err != nil {
		return registry.PublicationSummary{}, false
	}

	cnj := strings.TrimSpace(flatten(row["2"]))
	if cnj == "" {
		return registry.PublicationSummary{}, false
	}

	return registry.PublicationSummary{
		RegistryID:     id,
		ExpeditionDate: expedition,
		CNJ:            cnj,
	}, true
}

// parsePortalDate reads the portal's dd/MM/yyyy date strings.
func parsePortalDate(s string) (time.Time, error) {
	return time.ParseInLocation("02/01/2006", strings.TrimSpace(s), time.Local)
}
