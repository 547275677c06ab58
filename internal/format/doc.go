// Package format is the whitespace formatter/aligner for cfg scripts.
//
// Назначение: чистое преобразование текст -> текст (выравнивание ключей,
// парных кавычек, echo-таблиц и комментариев) без изменения семантики.
// Не делает: разбора смысла команд, валидации значений или IO.
// Гарантия: для каждой строки последовательность непробельных символов
// сохраняется, иначе строка откатывается к detab+rstrip оригиналу и её
// номер попадает в Result.SigFailLines.
package format
