package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type snapTheme struct{}

// NewTheme returns the application theme: warm paper background in light
// mode and a teal accent for the command buttons.
func NewTheme() fyne.Theme {
	return &snapTheme{}
}

func (t *snapTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	dark := variant == theme.VariantDark

	switch name {
	case theme.ColorNameBackground:
		if dark {
			return color.RGBA{R: 28, G: 30, B: 32, A: 255}
		}
		return color.RGBA{R: 250, G: 249, B: 245, A: 255}

	case theme.ColorNameButton:
		if dark {
			return color.RGBA{R: 58, G: 62, B: 66, A: 255}
		}
		return color.RGBA{R: 236, G: 236, B: 232, A: 255}

	case theme.ColorNameDisabledButton:
		if dark {
			return color.RGBA{R: 40, G: 42, B: 44, A: 255}
		}
		return color.RGBA{R: 222, G: 222, B: 218, A: 255}

	case theme.ColorNameForeground:
		if dark {
			return color.White
		}
		return color.RGBA{R: 20, G: 20, B: 20, A: 255}

	case theme.ColorNamePrimary, theme.ColorNameFocus:
		if dark {
			return color.RGBA{R: 64, G: 196, B: 180, A: 255}
		}
		return color.RGBA{R: 0, G: 137, B: 123, A: 255}

	case theme.ColorNameHover:
		if dark {
			return color.RGBA{R: 255, G: 255, B: 255, A: 25}
		}
		return color.RGBA{R: 0, G: 0, B: 0, A: 25}

	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *snapTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *snapTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *snapTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameInnerPadding {
		return 6
	}
	return theme.DefaultTheme().Size(name)
}
