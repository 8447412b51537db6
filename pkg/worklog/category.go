package worklog

import (
	"log"
	"regexp"
	"strings"
)

// CategoryDefinition is one user-editable classification rule. Patterns is a
// regular expression source tested case-insensitively against task titles.
// Rules are evaluated in order and the first match wins, so the list should
// end with a catch-all.
type CategoryDefinition struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Icon     string `yaml:"icon" json:"icon"`
	Patterns string `yaml:"patterns" json:"patterns"`
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
}

// Category is a classification result.
type Category struct {
	ID   string `json:"category"`
	Icon string `json:"icon"`
}

// FallbackCategory is returned when no rule matches. With a well-formed
// definition list the catch-all fires first, but classification must stay
// total even against a broken configuration.
var FallbackCategory = Category{ID: "work", Icon: "briefcase"}

// DefaultCategories mirrors the stock rule set shipped with the plugin
// settings, ending with the mandatory catch-all.
func DefaultCategories() []CategoryDefinition {
	return []CategoryDefinition{
		{ID: "meeting", Name: "Meetings", Icon: "users", Patterns: `会议|meeting|讨论|沟通|sync|standup|review|评审|对齐|同步|周会|日会|晨会|例会|培训|training|workshop`, Color: "#6366f1"},
		{ID: "coding", Name: "Coding", Icon: "code", Patterns: `编码|coding|开发|代码|debug|调试|修复|fix|bug|feature|功能|实现|implement|重构|refactor`, Color: "#10b981"},
		{ID: "design", Name: "Architecture", Icon: "blocks", Patterns: `架构|architecture|设计|design|方案|技术方案|系统设计|概要设计|详细设计|模块设计`, Color: "#3b82f6"},
		{ID: "reading", Name: "Reading", Icon: "book-open", Patterns: `阅读|reading|学习|learn|研究|research|文档|document|看书|教程|tutorial`, Color: "#f59e0b"},
		{ID: "writing", Name: "Writing", Icon: "pencil", Patterns: `写作|writing|撰写|文章|blog|博客|笔记|note|记录|总结|report|报告`, Color: "#a855f7"},
		{ID: "testing", Name: "Testing", Icon: "check-circle", Patterns: `测试|test|qa|质量|验证|verify`, Color: "#ef4444"},
		{ID: "break", Name: "Breaks", Icon: "coffee", Patterns: `休息|break|午餐|lunch|dinner|晚餐|吃饭|coffee|咖啡`, Color: "#ec4899"},
		{ID: "exercise", Name: "Exercise", Icon: "heart", Patterns: `运动|exercise|健身|gym|跑步|run|walk|散步`, Color: "#06b6d4"},
		{ID: "communication", Name: "Mail & chat", Icon: "mail", Patterns: `邮件|email|mail|消息|message|回复|reply|slack|钉钉|微信`, Color: "#8b5cf6"},
		{ID: "planning", Name: "Planning", Icon: "calendar", Patterns: `计划|plan|规划|安排|schedule|todo|待办`, Color: "#f97316"},
		{ID: "work", Name: "General work", Icon: "briefcase", Patterns: `.*`, Color: "#64748b"},
	}
}

type categoryRule struct {
	re     *regexp.Regexp
	result Category
}

// Classifier maps task titles to categories. Rules are compiled once at
// construction; a rule with an invalid pattern is logged and dropped so a
// bad user regex never breaks classification of the remaining rules.
type Classifier struct {
	rules []categoryRule
}

// NewClassifier compiles the given definitions into a classifier. A nil or
// empty list falls back to DefaultCategories.
func NewClassifier(defs []CategoryDefinition) *Classifier {
	if len(defs) == 0 {
		defs = DefaultCategories()
	}
	c := &Classifier{}
	for _, def := range defs {
		re, err := regexp.Compile("(?i)" + def.Patterns)
		if err != nil {
			log.Printf("worklog: invalid regex for category %s: %s", def.Name, def.Patterns)
			continue
		}
		c.rules = append(c.rules, categoryRule{re: re, result: Category{ID: def.ID, Icon: def.Icon}})
	}
	return c
}

// Classify returns the first matching category for a task title. It always
// returns a value; when nothing matches (possible if every rule failed to
// compile or none is a catch-all) the fallback applies.
func (c *Classifier) Classify(title string) Category {
	lower := strings.ToLower(title)
	for _, rule := range c.rules {
		if rule.re.MatchString(lower) {
			return rule.result
		}
	}
	return FallbackCategory
}
