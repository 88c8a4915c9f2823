package bot

import (
	"fmt"
)

// BOT KEYBOARDS

func btn(text string, c Command) Button {
	return Button{Text: text, Data: cb(c)}
}

func row(buttons ...Button) []Button {
	return buttons
}

func inline(rows ...[]Button) *Keyboard {
	return &Keyboard{Rows: rows}
}

// mainMenuKeyboard is the single way-out button shown under errors and results.
func (b *Bot) mainMenuKeyboard(lang string) *Keyboard {
	return inline(row(btn(b.t(lang, "btn.main_menu"), Command{Action: ActMainMenu})))
}

func (b *Bot) menuKeyboard(r *request) *Keyboard {
	kb := inline(
		row(btn(b.t(r.lang, "btn.new_order"), Command{Action: ActNewOrder})),
		row(btn(b.t(r.lang, "btn.my_orders"), Command{Action: ActMyOrders, Page: 1, Flag: true})),
		row(
			btn(b.t(r.lang, "btn.help"), Command{Action: ActHelp}),
			btn(b.t(r.lang, "btn.settings"), Command{Action: ActSettings}),
		),
	)
	if b.isAdmin(r.ev.UserID) {
		kb.Rows = append(kb.Rows, row(btn(b.t(r.lang, "btn.admin"), Command{Action: ActAdminMenu})))
	}
	return kb
}

func (b *Bot) echoKeyboard(lang, field string) *Keyboard {
	return inline(
		row(
			btn(b.t(lang, "btn.confirm"), Command{Action: ActConfirmField, Value: field}),
			btn(b.t(lang, "btn.reenter"), Command{Action: ActReenterField, Value: field}),
		),
		row(btn(b.t(lang, "btn.cancel_order"), Command{Action: ActCancelOrder})),
	)
}

func (b *Bot) cancelKeyboard(lang string) *Keyboard {
	return inline(row(btn(b.t(lang, "btn.cancel_order"), Command{Action: ActCancelOrder})))
}

func (b *Bot) paymentKeyboard(lang string) *Keyboard {
	return inline(
		row(
			btn(b.t(lang, "payment.cash"), Command{Action: ActPayment, Value: "cash"}),
			btn(b.t(lang, "payment.card_on_delivery"), Command{Action: ActPayment, Value: "card_on_delivery"}),
		),
		row(btn(b.t(lang, "btn.cancel_order"), Command{Action: ActCancelOrder})),
	)
}

func (b *Bot) notesKeyboard(lang string) *Keyboard {
	return inline(
		row(btn(b.t(lang, "btn.skip"), Command{Action: ActSkipNotes})),
		row(btn(b.t(lang, "btn.cancel_order"), Command{Action: ActCancelOrder})),
	)
}

// contactKeyboard is a reply keyboard: the contact button cannot be inline.
func (b *Bot) contactKeyboard(lang string) *Keyboard {
	return &Keyboard{
		Reply: true,
		Rows: [][]Button{
			{{Text: b.t(lang, "btn.share_contact"), RequestContact: true}},
			{{Text: b.t(lang, "btn.cancel_order")}},
		},
	}
}

func (b *Bot) summaryKeyboard(lang string) *Keyboard {
	return inline(
		row(btn(b.t(lang, "btn.submit"), Command{Action: ActSubmitOrder})),
		row(btn(b.t(lang, "btn.cancel_order"), Command{Action: ActCancelOrder})),
	)
}

var removeKeyboard = &Keyboard{Remove: true}

type linkKind int

const (
	linkFirst linkKind = iota
	linkBack5
	linkPrev
	linkCurrent
	linkNext
	linkFwd5
	linkLast
)

type pageLink struct {
	kind linkKind
	page int
}

// pageLinks lays out the pager for page of pages. Every target is within [1, pages].
func pageLinks(page, pages int) []pageLink {
	if pages < 1 {
		pages = 1
	}
	page = min(max(page, 1), pages)

	var links []pageLink
	if page > 2 {
		links = append(links, pageLink{linkFirst, 1})
	}
	if page-5 > 1 {
		links = append(links, pageLink{linkBack5, page - 5})
	}
	if page > 1 {
		links = append(links, pageLink{linkPrev, page - 1})
	}
	links = append(links, pageLink{linkCurrent, page})
	if page < pages {
		links = append(links, pageLink{linkNext, page + 1})
	}
	if page+5 < pages {
		links = append(links, pageLink{linkFwd5, page + 5})
	}
	if page < pages-1 {
		links = append(links, pageLink{linkLast, pages})
	}
	return links
}

// pagerRows renders pageLinks as buttons; target builds the payload for a page.
// Navigation and jumps go on separate rows to keep buttons readable.
func (b *Bot) pagerRows(lang string, page, pages int, target func(page int) Command) [][]Button {
	var nav, jumps []Button
	for _, l := range pageLinks(page, pages) {
		switch l.kind {
		case linkFirst:
			jumps = append(jumps, btn(b.t(lang, "btn.page_first"), target(l.page)))
		case linkBack5:
			jumps = append(jumps, btn(b.t(lang, "btn.page_back5"), target(l.page)))
		case linkPrev:
			nav = append(nav, btn(b.t(lang, "btn.page_prev"), target(l.page)))
		case linkCurrent:
			nav = append(nav, btn(fmt.Sprintf("%d/%d", l.page, pages), Command{Action: ActNoop}))
		case linkNext:
			nav = append(nav, btn(b.t(lang, "btn.page_next"), target(l.page)))
		case linkFwd5:
			jumps = append(jumps, btn(b.t(lang, "btn.page_fwd5"), target(l.page)))
		case linkLast:
			jumps = append(jumps, btn(b.t(lang, "btn.page_last", "page", pages), target(l.page)))
		}
	}

	rows := [][]Button{nav}
	if len(jumps) > 0 {
		rows = append(rows, jumps)
	}
	return rows
}

// totalPages is never below 1 so an empty list still has a page to show.
func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
