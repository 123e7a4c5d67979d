package dto

import (
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

// OptionDTO is one <option> of a select list
type OptionDTO struct {
	Value    string
	Label    string
	Selected bool
}

// UserOptions lists the directory for the creator/assigner selects. When
// withAll is set an "All" entry comes first. A selected name missing from
// the directory is kept so the form does not silently change it.
func UserOptions(usernames []string, selected string, withAll bool) []OptionDTO {
	opts := make([]OptionDTO, 0, len(usernames)+2)
	if withAll {
		opts = append(opts, allOption(selected))
	}

	found := selected == "" || selected == constants.FilterAll
	for _, name := range usernames {
		opts = append(opts, OptionDTO{
			Value:    name,
			Label:    models.DisplayName(name),
			Selected: name == selected,
		})
		if name == selected {
			found = true
		}
	}
	if !found {
		opts = append(opts, OptionDTO{Value: selected, Label: models.DisplayName(selected), Selected: true})
	}
	return opts
}

// StatusOptions lists the task statuses.
func StatusOptions(selected string, withAll bool) []OptionDTO {
	values := make([]string, len(models.TaskStatuses))
	for i, s := range models.TaskStatuses {
		values[i] = string(s)
	}
	return enumOptions(values, selected, withAll)
}

// CriticalityOptions lists the criticality levels.
func CriticalityOptions(selected string, withAll bool) []OptionDTO {
	values := make([]string, len(models.Criticalities))
	for i, c := range models.Criticalities {
		values[i] = string(c)
	}
	return enumOptions(values, selected, withAll)
}

func enumOptions(values []string, selected string, withAll bool) []OptionDTO {
	opts := make([]OptionDTO, 0, len(values)+1)
	if withAll {
		opts = append(opts, allOption(selected))
	}
	for _, v := range values {
		opts = append(opts, OptionDTO{Value: v, Label: v, Selected: v == selected})
	}
	return opts
}

func allOption(selected string) OptionDTO {
	return OptionDTO{
		Value:    constants.FilterAll,
		Label:    constants.FilterAll,
		Selected: selected == "" || selected == constants.FilterAll,
	}
}
