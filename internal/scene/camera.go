package scene

import "cogentcore.org/core/math32"

// ZoomDistance is how far in front of the camera a zoomed frame sits.
const ZoomDistance = 10

// Camera is the viewer pose. Rotation is XYZ Euler, like Pose.
type Camera struct {
	Position math32.Vector3 `json:"position"`
	Rotation math32.Vector3 `json:"rotation"`
	FOV      float32        `json:"fov"`
}

// DefaultCamera looks down -Z at the tree from 25 units away.
func DefaultCamera() Camera {
	return Camera{Position: math32.Vec3(0, 0, 25), FOV: 45}
}

// Forward returns the unit view direction.
func (c Camera) Forward() math32.Vector3 {
	return math32.Vec3(0, 0, -1).MulQuat(math32.NewQuatEuler(c.Rotation))
}

// ZoomPose is the target pose of a zoomed frame.
func (c Camera) ZoomPose() Pose {
	return Pose{
		Position: c.Position.Add(c.Forward().MulScalar(ZoomDistance)),
		Rotation: c.Rotation,
		Scale:    3,
	}
}

// Local expresses the camera in the frame of a group rotated by yaw about Y.
// The rotation is exact for cameras without pitch or roll.
func (c Camera) Local(yaw float32) Camera {
	inv := math32.NewQuatEuler(math32.Vec3(0, -yaw, 0))
	c.Position = c.Position.MulQuat(inv)
	c.Rotation.Y -= yaw
	return c
}
