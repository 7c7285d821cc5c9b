package rod

// TestHTML templates for testing
const (
	ContactHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="contact" style="width: 400px; height: 300px;">
		<label for="email">Email</label>
		<input id="email" type="email" name="email" />
		<textarea id="message" name="message"></textarea>
		<select id="country" name="country">
			<option value="">Choose</option>
			<option value="us">United States</option>
			<option value="de">Germany</option>
		</select>
		<input id="terms" type="checkbox" name="terms" />
		<button id="send" type="submit">Send</button>
	</form>
</body>
</html>`

	FramedHTML = `<!DOCTYPE html>
<html>
<body>
	<div style="height: 100px;"></div>
	<iframe name="embedded" src="/inner" style="width: 400px; height: 200px; border: 0;"></iframe>
</body>
</html>`

	InnerHTML = `<!DOCTYPE html>
<html>
<body>
	<input id="inner" name="inner" />
</body>
</html>`
)
