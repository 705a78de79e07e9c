// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "github.com/jobfunnel/jobfunnel/lib/stage"

// phrase holds one UI string in both supported languages.
type phrase struct {
	ru string
	en string
}

var phrases = map[string]phrase{
	"appTitle":    {ru: "Воронка поиска работы", en: "Job Search Funnel"},
	"dashboard":   {ru: "Дашборд", en: "Dashboard"},
	"avgResponse": {ru: "Средний ответ", en: "Avg response"},
	"days":        {ru: "дн.", en: "days"},
	"conversion":  {ru: "Конверсия", en: "Conversion"},
	"funnel":      {ru: "Воронка", en: "Funnel"},
	"stageHeader": {ru: "Пайплайн", en: "Pipeline"},
	"dragHint":    {ru: "Перетащите карточку, чтобы сменить этап", en: "Drag a card to change its stage"},
	"addCard":     {ru: "Новый отклик", en: "Add application"},
	"newCard":     {ru: "Новый отклик", en: "New application"},
	"signIn":      {ru: "Нужен вход через Google.", en: "Please sign in with Google."},
	"loading":     {ru: "Загрузка...", en: "Loading..."},
	"apiError":    {ru: "Ошибка API", en: "API error"},
	"baseURL":     {ru: "Адрес бэкенда", en: "Base URL"},
	"company":     {ru: "Компания", en: "Company"},
	"role":        {ru: "Роль", en: "Role"},
	"location":    {ru: "Локация / стек", en: "Location / stack"},
	"salary":      {ru: "Вилка", en: "Salary"},
	"sourceLabel": {ru: "Источник", en: "Source"},
	"priority":    {ru: "Приоритет", en: "Priority"},
	"low":         {ru: "низкий", en: "low"},
	"medium":      {ru: "средний", en: "medium"},
	"high":        {ru: "высокий", en: "high"},
	"appliedAt":   {ru: "Отклик отправлен", en: "Applied at"},
	"lastTouchAt": {ru: "Последнее событие", en: "Last touch"},
	"notes":       {ru: "Заметки", en: "Notes"},
	"stageField":  {ru: "Этап", en: "Stage"},
	"cancel":      {ru: "Отмена", en: "Cancel"},
	"save":        {ru: "Сохранить", en: "Save"},
	"edit":        {ru: "Редактировать", en: "Edit"},
	"saved":       {ru: "Сохранено", en: "Saved"},
	"moved":       {ru: "Этап обновлен", en: "Stage updated"},
	"signedOut":   {ru: "Вы вышли", en: "Signed out"},
}

// T returns the localized UI string for a key. Unknown keys return
// the key itself so a missing entry is visible rather than blank.
func T(lang stage.Language, keyword string) string {
	entry, ok := phrases[keyword]
	if !ok {
		return keyword
	}
	if lang == stage.Russian {
		return entry.ru
	}
	return entry.en
}
