package notification

import "fmt"

const passwordResetSubject = "Password Reset Request"

// PasswordResetEmail renders the reset-link mail sent when a buyer asks to
// reset their password.
func PasswordResetEmail(resetURL string) (subject, textBody, htmlBody string) {
	textBody = "Click the link to reset your password: " + resetURL

	htmlBody = fmt.Sprintf(`
<div style='font-family:sans-serif;padding:32px;'>
  <p>Click the button below to reset your password:</p>
  <a href="%s" style='display:inline-block;padding:10px 20px;background-color:#007bff;color:#fff;text-decoration:none;border-radius:5px;'>Reset Password</a>
  <p style='color:#555;margin-top:24px;'>If you did not request a reset, you can ignore this email. The link expires in one hour.</p>
</div>`, resetURL)

	return passwordResetSubject, textBody, htmlBody
}
