package ha

// Notifier raises and clears persistent notifications
type Notifier interface {
	CreateNotification(n Notification) error
	DismissNotification(id string) error
}

// CreateNotification calls persistent_notification.create
func (c *Client) CreateNotification(n Notification) error {
	data := map[string]interface{}{
		"title":   n.Title,
		"message": n.Message,
	}
	if n.ID != "" {
		data["notification_id"] = n.ID
	}
	return c.CallService("persistent_notification", "create", data)
}

// DismissNotification calls persistent_notification.dismiss
func (c *Client) DismissNotification(id string) error {
	return c.CallService("persistent_notification", "dismiss", map[string]interface{}{
		"notification_id": id,
	})
}
