package provider

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// playwrightTarget is implemented by playwright.Page and
// playwright.BrowserContext.
type playwrightTarget interface {
	ExposeFunction(name string, binding playwright.ExposedFunction) error
	AddInitScript(script playwright.Script) error
}

// Playwright adapts a playwright page or browser context to Page.
// Installing on a context covers every page it opens.
func Playwright(target playwrightTarget) Page {
	return playwrightPage{target: target}
}

type playwrightPage struct {
	target playwrightTarget
}

func (p playwrightPage) ExposeFunction(name string, fn func(requestJSON string) string) error {
	return p.target.ExposeFunction(name, func(args ...interface{}) interface{} {
		if len(args) == 0 {
			return fn("")
		}
		s, ok := args[0].(string)
		if !ok {
			return fn(fmt.Sprint(args[0]))
		}
		return fn(s)
	})
}

func (p playwrightPage) AddInitScript(script string) error {
	return p.target.AddInitScript(playwright.Script{Content: playwright.String(script)})
}
