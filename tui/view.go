package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

// outcomeOrder 统计框中各结果的显示顺序
var outcomeOrder = []struct {
	outcome internal.Outcome
	label   string
}{
	{internal.OutcomeMoved, "已移动"},
	{internal.OutcomeRenamed, "重命名后移动"},
	{internal.OutcomeSimilar, "近似重复"},
	{internal.OutcomeDuplicate, "删除重复"},
	{internal.OutcomePreserved, "保持原位"},
	{internal.OutcomeSkipped, "跳过"},
	{internal.OutcomeRecovered, "补记恢复"},
	{internal.OutcomeRestored, "已恢复"},
	{internal.OutcomeFailed, "失败"},
}

func (m model) View() string {
	switch m.state {
	case StateCounting:
		return m.countingView()
	case StateProcessing:
		return m.processingView()
	case StateComplete:
		return m.completeView()
	default:
		return "未知状态"
	}
}

func (m model) countingView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	b.WriteString(m.spinner.View() + " 正在统计文件数量...\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m model) processingView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title) + "\n\n")

	b.WriteString(labelStyle.Render("处理进度：") + "\n")
	b.WriteString(m.progressBar.View() + "\n")
	b.WriteString(fmt.Sprintf("%d / %d\n\n", m.processed, m.totalFiles))

	b.WriteString(statsBoxStyle.Render(m.renderOutcomes()) + "\n\n")

	b.WriteString(labelStyle.Render("当前文件：") + "\n")
	b.WriteString(filePathStyle.Render(m.fit(m.currentFile, 4)) + "\n\n")

	b.WriteString(labelStyle.Render("最近处理：") + "\n")
	b.WriteString(m.renderRecent())

	b.WriteString("\n" + hintStyle.Render("Ctrl+C 中止") + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m model) completeView() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(errorTitleStyle.Render("❌ 运行失败") + "\n\n")
		b.WriteString(failedStyle.Render(m.err.Error()) + "\n\n")
	default:
		b.WriteString(successTitleStyle.Render("✅ 处理完成！") + "\n\n")
	}

	if m.processed > 0 || m.stats.Total > 0 {
		b.WriteString(statsBoxStyle.Render(m.renderFinalStats()) + "\n\n")
	}

	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(hintStyle.Render("按 Enter 或 q 退出") + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m model) renderOutcomes() string {
	var b strings.Builder
	b.WriteString("📊 实时统计：\n\n")
	for _, o := range outcomeOrder {
		if n := m.outcomes[o.outcome]; n > 0 {
			b.WriteString(fmt.Sprintf("  %-12s %d\n", o.label, n))
		}
	}
	if m.processed == 0 {
		b.WriteString("  等待第一个文件...\n")
	}
	return b.String()
}

func (m model) renderRecent() string {
	var b strings.Builder
	for _, item := range m.recent {
		line := fmt.Sprintf("  [%s] %s", item.outcome, m.fit(item.path, 16))
		if item.failed {
			line = failedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m model) renderFinalStats() string {
	s := m.stats
	var b strings.Builder
	b.WriteString("📊 最终统计：\n\n")
	b.WriteString(fmt.Sprintf("  • 文件总数：     %d 个\n", s.Total))
	b.WriteString(fmt.Sprintf("  • 已移动：       %d 个\n", s.Moved))
	b.WriteString(fmt.Sprintf("    ├─ 重命名：    %d 个\n", s.Renamed))
	b.WriteString(fmt.Sprintf("    └─ 近似重复：  %d 个\n", s.Similar))
	b.WriteString(fmt.Sprintf("  • 完全重复：     %d 个\n", s.Duplicates))
	b.WriteString(fmt.Sprintf("  • 保持原位：     %d 个\n", s.Preserved))
	b.WriteString(fmt.Sprintf("  • 错误：         %d 个\n", s.Errors))
	if s.Recovered > 0 {
		b.WriteString(fmt.Sprintf("  • 补记恢复：     %d 个\n", s.Recovered))
	}
	b.WriteString(fmt.Sprintf("  • 总耗时：       %s\n", humanize.RelTime(s.StartTime, s.EndTime, "", "")))
	return b.String()
}

// fit 把路径截断到终端宽度内，reserve 为行内其他内容占用的宽度
func (m model) fit(path string, reserve int) string {
	width := m.width - reserve - 4
	if width < 10 {
		width = 10
	}
	return truncate.StringWithTail(path, uint(width), "…")
}
