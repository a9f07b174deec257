package ui

import "github.com/charmbracelet/lipgloss"

var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle   = lipgloss.NewStyle().MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	solvedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3cb44b")).Bold(true)

	wallStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b5a2b"))
	goalStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#f0c000"))
	blockStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#d2b48c")).Bold(true)
	blockOnGoalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3cb44b")).Bold(true)
)

// 每个格子两列宽，终端里接近正方形
const (
	cellWall        = "██"
	cellFloor       = "  "
	cellGoal        = "··"
	cellBlock       = "[]"
	cellBlockOnGoal = "▣▣"
)

// playerStyle 按玩家颜色渲染，自己加下划线
func playerStyle(color string, self bool) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Underline(self)
}
