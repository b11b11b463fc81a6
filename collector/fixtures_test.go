package collector

import (
	"fmt"
	"strings"
)

// card renders one result-list entry in the site's markup. Empty fields are
// left out of the card entirely.
type card struct {
	classes     string
	adID        string
	href        string
	location    string
	img         string
	title       string
	price       string
	description string
	noArticle   bool
}

func (c card) html() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<li class="ad-listitem %s">`, c.classes)
	if c.noArticle {
		b.WriteString(`<div class="placeholder">Anzeige</div></li>`)
		return b.String()
	}

	b.WriteString(`<article class="aditem"`)
	if c.adID != "" {
		fmt.Fprintf(&b, ` data-adid="%s"`, c.adID)
	}
	if c.href != "" {
		fmt.Fprintf(&b, ` data-href="%s"`, c.href)
	}
	b.WriteString(">\n")

	if c.img != "" {
		fmt.Fprintf(&b, `<div class="aditem-image"><a href="%s"><div class="imagebox srpimagebox"><img src="%s" alt=""></div></a></div>`, c.href, c.img)
	}
	b.WriteString(`<div class="aditem-main">`)
	if c.location != "" {
		fmt.Fprintf(&b, `<div class="aditem-main--top">
	<div class="aditem-main--top--left">
		<i class="icon icon-small icon-pin-gray"></i> %s
	</div>
	<div class="aditem-main--top--right">Heute, 10:12</div>
</div>`, c.location)
	}
	b.WriteString(`<div class="aditem-main--middle">`)
	if c.title != "" {
		fmt.Fprintf(&b, `<h2 class="text-module-begin"><a class="ellipsis" href="%s">%s</a></h2>`, c.href, c.title)
	}
	if c.description != "" {
		fmt.Fprintf(&b, `<p class="aditem-main--middle--description">%s</p>`, c.description)
	}
	if c.price != "" {
		fmt.Fprintf(&b, `<div class="aditem-main--middle--price-shipping"><p class="aditem-main--middle--price-shipping--price">
		%s
	</p></div>`, c.price)
	}
	b.WriteString(`</div></div></article></li>`)
	return b.String()
}

// resultPage renders a full search result page around cards. When empty is
// set, the "no exact results" banner is included above the list.
func resultPage(empty bool, cards ...card) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="de"><head><title>Kleinanzeigen</title></head><body>
<header><nav>Kleinanzeigen - Kostenlos. Einfach. Lokal. Anzeigen gratis inserieren mit Kleinanzeigen.
Jetzt entdecken, kaufen und verkaufen in deiner Nachbarschaft. Meine Suchen, Merkliste, Nachrichten.</nav></header>
<main>`)
	if empty {
		b.WriteString(`<div id="saved-search-empty-result" class="outcomemessage-warning">Leider wurden keine genauen Treffer gefunden. Das könnte dich auch interessieren.</div>`)
	}
	b.WriteString(`<ul id="srchrslt-adtable" class="itemlist">`)
	for _, c := range cards {
		b.WriteString(c.html())
	}
	b.WriteString(`</ul></main><footer>Impressum Datenschutz Nutzungsbedingungen</footer></body></html>`)
	return b.String()
}
