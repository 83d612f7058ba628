package factory

import (
	"strings"

	fab "github.com/Goldziher/fabricator"

	"simpletodo/internal/core/domain"
)

// NewTodo builds an unsaved todo. Generated content is padded or cut to
// fit the allowed length, overrides are applied as given.
func NewTodo(customData ...map[string]any) domain.Todo {
	todo := fab.New(domain.Todo{}).Build(customData...)

	if !overrides(customData, "Content") {
		todo.Content = fitContent(todo.Content)
	}

	if !overrides(customData, "ID") {
		todo.ID = 0
	}

	return todo
}

func overrides(customData []map[string]any, field string) bool {
	for _, data := range customData {
		if _, exists := data[field]; exists {
			return true
		}
	}

	return false
}

func fitContent(content string) string {
	runes := []rune(strings.TrimSpace(content))

	if len(runes) > domain.ContentMaxLength {
		runes = runes[:domain.ContentMaxLength]
	}

	for len(runes) < domain.ContentMinLength {
		runes = append(runes, 'x')
	}

	return string(runes)
}
