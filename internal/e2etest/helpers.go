package e2etest

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// FindForm returns the form of doc posting to action.
func FindForm(doc *goquery.Document, action string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", action))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", action)
	}
	return form, nil
}

// FindInputForLabel returns the input, textarea or select labelled labelText inside form. The control is found
// through the label's for attribute or by nesting.
func FindInputForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains(%s)", labelText)).First()
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}

	const controls = "input,textarea,select"
	input := label.Find(controls)
	if id, ok := label.Attr("for"); ok {
		input = form.Find(controls).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("id", "") == id
		})
	}
	if input.Length() == 0 {
		return nil, fmt.Errorf("input not found for label: %s", labelText)
	}
	return input.First(), nil
}
